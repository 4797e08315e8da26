// Package main provides a command-line tool that repairs ZIP archives whose
// entry names are stored in a legacy OS encoding or in decomposed UTF-8.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/zipmend/zipmend/pkg/fname"
	"github.com/zipmend/zipmend/pkg/repair"
	"github.com/zipmend/zipmend/pkg/zipfile"
)

var (
	inPlace      bool
	checkOnly    bool
	listOnly     bool
	encodingName string
	utf8First    bool
	assumeYes    bool
	forceRepair  bool
	quiet        bool
)

func init() {
	flag.BoolVar(&inPlace, "i", false, "Repair the archive in place (atomic replace)")
	flag.BoolVar(&checkOnly, "c", false, "Check only; report whether the file names are portable")
	flag.BoolVar(&listOnly, "l", false, "List entry names as currently decodable")
	flag.StringVar(&encodingName, "e", "", "Force a specific legacy encoding, bypassing detection")
	flag.BoolVar(&utf8First, "u", false, "Prefer a UTF-8 reading over the locale hint when both fit")
	flag.BoolVar(&assumeYes, "y", false, "Do not ask for confirmation")
	flag.BoolVar(&forceRepair, "f", false, "Rewrite even when the archive is already portable")
	flag.BoolVar(&quiet, "q", false, "Suppress messages (implies -y)")
}

// Exit statuses: 0 success / already portable, 1 error, 2 archive is not
// portable (check) or nothing to do (repair), 3 partial repair.
func main() {
	flag.Parse()

	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	if flag.NArg() < 1 {
		flag.Usage()
		return 1, fmt.Errorf("input archive is required")
	}
	input := flag.Arg(0)

	src, err := os.Open(input)
	if err != nil {
		return 1, err
	}
	defer src.Close()

	archive, err := zipfile.Parse(src)
	if err != nil {
		return 1, err
	}

	opts := repair.Options{
		Hint:       fname.LocaleHint(localeName()),
		PreferUTF8: utf8First,
	}
	if encodingName != "" {
		forced, err := fname.ByName(encodingName)
		if err != nil {
			return 1, err
		}
		opts.Forced = forced
	}
	plan := repair.BuildPlan(archive, opts)

	if checkOnly {
		return runCheck(archive, plan)
	}
	if listOnly {
		listNames(archive, plan, opts)
		return 0, nil
	}
	return runRepair(input, src, archive, plan, opts)
}

func runCheck(archive *zipfile.Archive, plan *repair.Plan) (int, error) {
	diag := repair.Diagnose(archive)
	status := color.New(color.FgRed, color.Bold)
	note := color.New(color.FgYellow, color.Bold)
	if diag.Universal() {
		status = color.New(color.FgGreen, color.Bold)
		note = color.New(color.FgGreen, color.Bold)
	}
	if !quiet {
		fmt.Printf("%s  %s\n", status.Sprint(diag.Message()), note.Sprint(diag.Note()))
	}
	if plan.Verdict == repair.VerdictAlreadyValid {
		return 0, nil
	}
	return 2, nil
}

func runRepair(input string, src *os.File, archive *zipfile.Archive, plan *repair.Plan, opts repair.Options) (int, error) {
	switch plan.Verdict {
	case repair.VerdictAmbiguous:
		return 1, fmt.Errorf("file name encoding is ambiguous (viable: %s); choose one with -e",
			decoderNames(plan.Viable))
	case repair.VerdictUnsupported:
		return 1, fmt.Errorf("file names are not encoded in UTF-8 or any known legacy encoding; try -e <encoding>")
	}

	diag := repair.Diagnose(archive)
	if plan.Verdict == repair.VerdictAlreadyValid && !forceRepair {
		if !quiet {
			green := color.New(color.FgGreen, color.Bold)
			fmt.Fprintf(os.Stderr, "%s  %s\n%s\n",
				green.Sprint(diag.Message()), green.Sprint(diag.Note()),
				green.Sprint("You do not have to repair this archive."))
		}
		return 2, nil
	}

	if !quiet {
		listNames(archive, plan, opts)
		if !assumeYes {
			fmt.Fprint(os.Stderr, "Are these file names correct? [Y/n]: ")
			if !askDefaultYes() {
				return 1, nil
			}
		}
	}

	output := flag.Arg(1)
	if inPlace {
		if err := writeInPlace(input, archive, plan); err != nil {
			return 1, err
		}
	} else {
		if output == "" {
			return 1, fmt.Errorf("output path is required (or use -i to repair in place)")
		}
		if output == input {
			return 1, fmt.Errorf("input and output must not be the same file")
		}
		if err := writeNew(output, archive, plan); err != nil {
			return 1, err
		}
	}

	if n := plan.UnrecoverableCount(); n > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d entries could not be recovered and were copied unchanged\n", n)
		return 3, nil
	}
	return 0, nil
}

// writeNew writes the repaired archive to a fresh file, refusing to clobber
// an existing one. A partially written file is removed on any failure.
func writeNew(path string, archive *zipfile.Archive, plan *repair.Plan) error {
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if err := writeArchive(dst, archive, plan); err != nil {
		dst.Close()
		os.Remove(path)
		return err
	}
	return dst.Close()
}

// writeInPlace writes to a temporary file next to the input and renames it
// over the original only after the rebuild completed, so a crash mid-write
// never corrupts the source archive.
func writeInPlace(input string, archive *zipfile.Archive, plan *repair.Plan) error {
	tmp, err := os.CreateTemp(filepath.Dir(input), filepath.Base(input)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	if err := writeArchive(tmp, archive, plan); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), input); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace archive: %w", err)
	}
	return nil
}

func writeArchive(dst *os.File, archive *zipfile.Archive, plan *repair.Plan) error {
	w := bufio.NewWriter(dst)
	if err := repair.Apply(archive, plan, w); err != nil {
		return err
	}
	return w.Flush()
}

func listNames(archive *zipfile.Archive, plan *repair.Plan, opts repair.Options) {
	var (
		regular   = color.New(color.FgGreen, color.Bold).Sprint("REGULAR UTF-8")
		irregular = color.New(color.FgRed, color.Bold).Sprint("IRREGULAR UTF-8")
		ascii     = color.New(color.FgGreen, color.Bold).Sprint("ASCII")
		guessed   = color.New(color.FgRed, color.Bold).Sprint("GUESSED")
	)
	for _, e := range repair.ListNames(archive, displayDecoder(archive, plan, opts)) {
		switch e.Kind {
		case repair.NameRegularUTF8:
			fmt.Printf("%s:%s\n", regular, e.Name)
		case repair.NameIrregularUTF8:
			fmt.Printf("%s:%s\n", irregular, e.Name)
		case repair.NameASCII:
			fmt.Printf("%s:%s\n", ascii, e.Name)
		case repair.NameGuessed:
			enc := color.New(color.FgRed, color.Bold).Sprint(e.Encoding)
			fmt.Printf("%s %s:%s\n", enc, guessed, e.Name)
		}
	}
}

// displayDecoder picks the legacy decoder used for listing. For an
// ambiguous archive a charset detector ranks the viable candidates; the
// listing then marks those names GUESSED either way.
func displayDecoder(archive *zipfile.Archive, plan *repair.Plan, opts repair.Options) fname.Decoder {
	if plan.Encoding != nil {
		return plan.Encoding
	}
	if len(plan.Viable) > 0 {
		return fname.PickDisplay(plan.Viable, nameSample(archive))
	}
	if opts.Forced != nil {
		return opts.Forced
	}
	if opts.Hint != nil {
		return opts.Hint
	}
	// Historical ZIP default; lossy display only, never a repair choice.
	return fname.CP437
}

// nameSample concatenates the implicit non-ASCII name bytes for the charset
// detector.
func nameSample(archive *zipfile.Archive) []byte {
	var buf bytes.Buffer
	for i := range archive.Entries {
		cd := &archive.Entries[i]
		if !cd.IsUTF8() {
			buf.Write(cd.Name)
			buf.WriteByte(' ')
		}
	}
	return buf.Bytes()
}

func decoderNames(decoders []fname.Decoder) string {
	names := make([]string, len(decoders))
	for i, d := range decoders {
		names[i] = d.Name()
	}
	return strings.Join(names, ", ")
}

func askDefaultYes() bool {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return true
	}
	switch strings.TrimSpace(line) {
	case "n", "N", "no", "No", "NO":
		return false
	}
	return true
}

func localeName() string {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
