package commands

import (
	"fmt"
	"io"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/plume/needle"
)

func injectCmd(global *globalOptions) *cobra.Command {
	var (
		req          needle.Request
		checkPattern string
	)

	cmd := &cobra.Command{
		Use:   "inject <file> <needle> [content]",
		Short: "Insert content at a needle in an existing file",
		Long: `Insert content next to every line carrying the needle marker
plume-needle-<needle>. The content is indented like the marker line and
is not inserted again when the file already contains it.

Content is read from stdin when omitted or "-".

Examples:
  plume inject src/Routes.java add-route 'add("/books");'
  plume inject pom.xml dependency --after < dependency.xml`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, global)
			if err != nil {
				return err
			}

			req.File, req.Needle = args[0], args[1]
			if len(args) == 3 && args[2] != "-" {
				req.Content = args[2]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read content: %w", err)
				}
				req.Content = string(data)
			}
			if checkPattern != "" {
				re, err := regexp.Compile(checkPattern)
				if err != nil {
					return fmt.Errorf("invalid --check-pattern: %w", err)
				}
				req.CheckPattern = re
			}

			gen, err := s.generator(cmd, generatorOptions{})
			if err != nil {
				return err
			}
			results, err := gen.Inject(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !results[0].Changed && results[0].Warning == "" {
				s.printer.Info(fmt.Sprintf("%s already contains the content", req.File))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&req.After, "after", false, "Insert below the needle instead of above")
	cmd.Flags().StringVar(&req.Check, "check", "", "Text whose presence means the content is already there")
	cmd.Flags().StringVar(&checkPattern, "check-pattern", "", "Regexp whose match means the content is already there")
	cmd.Flags().BoolVar(&req.AutoIndent, "auto-indent", false, "Strip the content's own indentation first")
	cmd.Flags().BoolVar(&req.StrictWhitespace, "strict-whitespace", false, "Compare the check text byte for byte")
	cmd.Flags().StringVar(&req.BypassMessage, "bypass-message", "", "Warn with this message instead of failing when the needle is missing")
	cmd.Flags().BoolVar(&req.IgnoreNonExisting, "ignore-missing", false, "Do nothing when the file does not exist")

	return cmd
}
