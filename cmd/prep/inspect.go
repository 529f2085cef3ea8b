package main

import (
	"flag"
	"fmt"

	"pipelined.dev/prep"
	"pipelined.dev/prep/wav"
)

type inspectCommand struct {
	manifest string
}

func (cmd *inspectCommand) Name() string {
	return "inspect"
}

func (cmd *inspectCommand) Help() string {
	return "Parse a manifest without extracting features and report per-line counts"
}

func (cmd *inspectCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.manifest, "manifest", "", "path to manifest (required)")
}

func (cmd *inspectCommand) Run() error {
	if cmd.manifest == "" {
		return fmt.Errorf("missing -manifest required flag")
	}
	lines, err := prep.ReadManifest(cmd.manifest)
	if err != nil {
		return err
	}

	records, skipped := 0, 0
	for i, line := range lines {
		clips, labels, info, err := wav.Parse(nil, line, nil)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		if clips == nil {
			skipped++
			continue
		}
		records += len(clips)
		fmt.Printf("line %d: %d clips, %d label records, sample rate %v\n",
			i+1, len(clips), len(labels), info[prep.SampleRateKey])
	}
	fmt.Printf("%d lines, %d records, %d skipped\n", len(lines), records, skipped)
	return nil
}
