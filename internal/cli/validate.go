package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/beyond/internal/shards"
)

// ValidationError is one problem found by validate.
type ValidationError struct {
	Source  string `json:"source"` // "config" or the catalog file name
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Catalog string            `json:"catalog"`
	Cards   int               `json:"cards,omitempty"`
	Deck    int               `json:"deck,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [catalog.cue]",
		Short: "Validate the configuration and a card catalog",
		Long: `Validate the --config file and a CUE card catalog without playing.

The catalog is the argument when given, else the catalog named in the
configuration, else the built-in one.

Examples:
  beyond validate
  beyond validate ./cards.cue
  beyond validate --config game.yaml --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, args)
		},
	}

	return cmd
}

func runValidate(cmd *cobra.Command, opts *RootOptions, args []string) error {
	result := ValidationResult{}

	cfg, err := opts.loadConfig()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		result.Errors = append(result.Errors, ValidationError{Source: "config", Message: err.Error()})
	}

	path := cfg.Game.Catalog
	if len(args) == 1 {
		path = args[0]
	}
	result.Catalog = path
	if path == "" {
		result.Catalog = "(built-in)"
	}

	cat, err := loadCatalog(path)
	if err != nil {
		result.Errors = append(result.Errors, catalogError(result.Catalog, err))
	} else {
		result.Cards = len(cat.Cards)
		result.Deck = cat.DeckSize()
	}
	result.Valid = len(result.Errors) == 0

	var failure *ExitError
	if !result.Valid {
		failure = NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	if isJSON(opts) {
		return writeJSON(out(cmd), result, "E_VALIDATION", failure)
	}
	printValidation(out(cmd), result)
	if failure != nil {
		return failure
	}
	return nil
}

func loadCatalog(path string) (*shards.Catalog, error) {
	if path == "" {
		return shards.DefaultCatalog()
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return shards.CompileCatalog(path, src)
}

func catalogError(source string, err error) ValidationError {
	var ce *shards.CatalogError
	if errors.As(err, &ce) {
		ve := ValidationError{Source: source, Field: ce.Field, Message: ce.Message}
		if ce.Pos.IsValid() {
			ve.Line = ce.Pos.Line()
			ve.Column = ce.Pos.Column()
		}
		return ve
	}
	return ValidationError{Source: source, Message: err.Error()}
}

func printValidation(w io.Writer, r ValidationResult) {
	if r.Valid {
		fmt.Fprintf(w, "✓ Catalog %s: %d cards, deck of %d\n", r.Catalog, r.Cards, r.Deck)
		fmt.Fprintln(w, "✓ Configuration valid")
		return
	}
	fmt.Fprintf(w, "✗ Validation failed with %d error(s):\n", len(r.Errors))
	for _, e := range r.Errors {
		switch {
		case e.Line > 0:
			fmt.Fprintf(w, "  %s:%d:%d: %s\n", e.Source, e.Line, e.Column, e.Message)
		default:
			fmt.Fprintf(w, "  %s: %s\n", e.Source, e.Message)
		}
	}
}
