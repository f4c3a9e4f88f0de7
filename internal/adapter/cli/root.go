// Package cli implements the cobra command surface over the review
// orchestrator.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bkyoung/bookreviewer/internal/domain"
	"github.com/bkyoung/bookreviewer/internal/usecase/review"
)

// ErrVersionRequested indicates the user requested the CLI version and no
// further work should be done.
var ErrVersionRequested = errors.New("version requested")

// ReviewService defines the orchestrator operations the CLI drives.
type ReviewService interface {
	CreateReview(ctx context.Context, req review.CreateReviewRequest) (domain.Review, error)
	GetReview(ctx context.Context, id string) (domain.Review, error)
	ListReviews(ctx context.Context) ([]domain.Review, error)
	DeleteReview(ctx context.Context, id string) (domain.DeleteReviewResult, error)
	DownloadArtifact(ctx context.Context, id string) (io.ReadCloser, error)
}

// Arguments encapsulates IO injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
	InReader  io.Reader
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Service ReviewService
	Args    Arguments
	Version string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "bkr",
		Short: "AI book review CLI",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	inReader := deps.Args.InReader
	if inReader == nil {
		inReader = os.Stdin
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)
	root.SetIn(bufio.NewReader(inReader))

	root.AddCommand(createCommand(deps.Service))
	root.AddCommand(getCommand(deps.Service))
	root.AddCommand(listCommand(deps.Service))
	root.AddCommand(deleteCommand(deps.Service, inReader))
	root.AddCommand(downloadCommand(deps.Service))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func createCommand(service ReviewService) *cobra.Command {
	var title string
	var content string
	var contentFile string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a review with AI improvement, pricing and backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveContent(cmd, content, contentFile)
			if err != nil {
				return err
			}

			created, err := service.CreateReview(cmd.Context(), review.CreateReviewRequest{
				Title:   title,
				Content: resolved,
			})
			if err != nil {
				return err
			}

			printReview(cmd.OutOrStdout(), created)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Book title (required)")
	cmd.Flags().StringVar(&content, "content", "", "Review text")
	cmd.Flags().StringVar(&contentFile, "content-file", "", "Read review text from a file ('-' for stdin)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

// resolveContent picks the review text from --content, --content-file or stdin.
func resolveContent(cmd *cobra.Command, content, contentFile string) (string, error) {
	if content != "" {
		return content, nil
	}
	if contentFile == "" {
		return "", fmt.Errorf("provide review text via --content or --content-file")
	}
	if contentFile == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read content from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(contentFile)
	if err != nil {
		return "", fmt.Errorf("read content file: %w", err)
	}
	return string(data), nil
}

func getCommand(service ReviewService) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			got, err := service.GetReview(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printReview(cmd.OutOrStdout(), got)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", got.ImprovedContent)
			return nil
		},
	}
}

func listCommand(service ReviewService) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			reviews, err := service.ListReviews(cmd.Context())
			if err != nil {
				return err
			}
			if len(reviews) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no reviews")
				return nil
			}

			table := newTable(cmd.OutOrStdout(), []string{"ID", "TITLE", "AI", "CURRENCY", "STORAGE", "USD", "KRW", "CREATED"})
			for _, r := range reviews {
				_ = table.Append([]string{
					r.ID,
					r.Title,
					statusColor(r.Integration.AI),
					statusColor(r.Integration.Currency),
					statusColor(r.Integration.Storage),
					FormatUSD(r.USDCost),
					FormatKRW(r.KRWCost),
					r.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			return table.Render()
		},
	}
}

func deleteCommand(service ReviewService, in io.Reader) *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a review and its stored artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !assumeYes && term.IsTerminal(int(os.Stdin.Fd())) {
				ok, err := confirm(cmd.OutOrStdout(), in, fmt.Sprintf("Delete review %s? [y/N]: ", id))
				if err != nil {
					return err
				}
				if !ok {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}

			result, err := service.DeleteReview(cmd.Context(), id)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			if !result.DriveDeleted {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "stored artifact was not removed")
			}
			for _, warning := range result.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func confirm(out io.Writer, in io.Reader, prompt string) (bool, error) {
	_, _ = fmt.Fprint(out, prompt)
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func downloadCommand(service ReviewService) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download the stored markdown artifact of a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := service.DownloadArtifact(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer body.Close()

			if outputPath == "" {
				_, err = io.Copy(cmd.OutOrStdout(), body)
				return err
			}

			file, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer file.Close()
			if _, err := io.Copy(file, body); err != nil {
				return fmt.Errorf("write artifact: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved to %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the artifact to a file instead of stdout")
	return cmd
}

func printReview(out io.Writer, r domain.Review) {
	_, _ = fmt.Fprintf(out, "id:       %s\n", r.ID)
	_, _ = fmt.Fprintf(out, "title:    %s\n", r.Title)
	_, _ = fmt.Fprintf(out, "ai:       %s\n", statusColor(r.Integration.AI))
	_, _ = fmt.Fprintf(out, "currency: %s\n", statusColor(r.Integration.Currency))
	_, _ = fmt.Fprintf(out, "storage:  %s\n", statusColor(r.Integration.Storage))
	_, _ = fmt.Fprintf(out, "tokens:   %d\n", r.TokenCount)
	_, _ = fmt.Fprintf(out, "cost:     %s / %s\n", FormatUSD(r.USDCost), FormatKRW(r.KRWCost))
	if r.FileID != "" {
		_, _ = fmt.Fprintf(out, "file:     %s\n", r.FileID)
	}
	if r.Integration.WarningMessage != "" {
		_, _ = fmt.Fprintf(out, "warnings:\n")
		for _, line := range strings.Split(r.Integration.WarningMessage, "\n") {
			_, _ = fmt.Fprintf(out, "  - %s\n", line)
		}
	}
}

// newTable creates a tablewriter configured with consistent styling.
func newTable(out io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}
