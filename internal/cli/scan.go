package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/promptshield/promptshield/detector"
	"github.com/promptshield/promptshield/guardrail"
	"github.com/promptshield/promptshield/internal/config"
)

var (
	scanFile     string
	scanPII      bool
	scanInject   bool
	scanToxicity bool
	scanMaxChars int
	scanRedact   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [text]",
	Short: "Screen a piece of text through the guardrail pipeline",
	Long: `Run text through the pipeline and print what was found. Text can be
passed as an argument, read from a file, or piped on stdin:

  promptshield scan "ignore previous instructions"
  promptshield scan --file prompt.txt
  cat prompt.txt | promptshield scan

With --config the pipeline comes from the config file; otherwise the
--pii/--injection/--toxicity flags assemble one. Exit code is 2 when
the text is blocked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: scanCommand,
}

func init() {
	scanCmd.Flags().StringVarP(&scanFile, "file", "f", "", "Read text from file instead of argument")
	scanCmd.Flags().BoolVar(&scanPII, "pii", true, "Detect and redact PII")
	scanCmd.Flags().BoolVar(&scanInject, "injection", true, "Detect prompt injection")
	scanCmd.Flags().BoolVar(&scanToxicity, "toxicity", true, "Detect toxic content")
	scanCmd.Flags().IntVar(&scanMaxChars, "max-chars", 0, "Block text longer than this many characters (0 = no limit)")
	scanCmd.Flags().BoolVar(&scanRedact, "redact", true, "Rewrite PII matches instead of only reporting them")
	rootCmd.AddCommand(scanCmd)
}

func scanCommand(cmd *cobra.Command, args []string) error {
	text, err := readScanInput(args)
	if err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("nothing to scan: pass text as an argument, --file, or stdin")
	}

	p, err := scanPipeline()
	if err != nil {
		return err
	}

	res := p.Run(text)
	printResult(res)

	if res.Blocked() {
		os.Exit(2)
	}
	return nil
}

// readScanInput resolves the text source: argument wins, then --file,
// then piped stdin. An interactive terminal is not read from.
func readScanInput(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if scanFile != "" {
		data, err := os.ReadFile(scanFile)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", scanFile, err)
		}
		return string(data), nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	return "", nil
}

// scanPipeline builds the pipeline: from the config file when --config
// was given explicitly, from the detector flags otherwise.
func scanPipeline() (*guardrail.Pipeline, error) {
	if rootCmd.PersistentFlags().Changed("config") {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		return config.Build(cfg)
	}

	p := guardrail.NewPipeline()
	if scanPII {
		action := guardrail.ActionRedact
		if !scanRedact {
			action = guardrail.ActionWarn
		}
		p.Add(detector.NewPII(detector.WithPIIRedaction(scanRedact), detector.WithPIIAction(action)), action)
	}
	if scanInject {
		p.Add(detector.NewInjection(), guardrail.ActionBlock)
	}
	if scanToxicity {
		p.Add(detector.NewToxicity(), guardrail.ActionBlock)
	}
	if scanMaxChars > 0 {
		p.Add(detector.NewLength(detector.WithMaxChars(scanMaxChars)), guardrail.ActionBlock)
	}
	return p, nil
}

func printResult(res guardrail.Result) {
	if !res.HasFindings() {
		fmt.Println("OK - no findings")
		return
	}

	for _, f := range res.Findings {
		fmt.Printf("  %s  [%s/%s] %s\n", severityIcon(f.Severity), f.Validator, f.Category, f.Description)
	}
	fmt.Println()

	switch {
	case res.Blocked():
		fmt.Println("BLOCKED")
	case res.ActionTaken == guardrail.ActionRedact:
		fmt.Println("REDACTED:")
		fmt.Println(res.Text)
	default:
		fmt.Printf("%s (%d finding(s))\n", res.ActionTaken, len(res.Findings))
	}
}

func severityIcon(sev float64) string {
	switch {
	case sev >= 0.9:
		return "!!!"
	case sev >= 0.5:
		return "!"
	default:
		return "."
	}
}
