// Package cli wires the cobra command tree for the pf binary.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"golang.org/x/term"

	"github.com/promptforge/promptforge/internal/adapter/docsource"
	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/usecase/generate"
	"github.com/promptforge/promptforge/internal/usecase/ingest"
)

// ErrVersionRequested indicates the user requested the CLI version and no
// further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Generator runs the prompt generation pipeline.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (*generate.Response, error)
}

// Ingestor manages the knowledge base.
type Ingestor interface {
	Ingest(ctx context.Context, req ingest.Request) (ingest.Result, error)
	List(ctx context.Context, docType string, limit int) ([]domain.DocumentInfo, error)
	Delete(ctx context.Context, docID string) (int, error)
	Stats(ctx context.Context) (ingest.Stats, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
	InReader  io.Reader
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Generator Generator
	Ingestor  Ingestor

	// Serve starts the HTTP API and blocks until it stops.
	Serve func(ctx context.Context, addr string) error

	Args        Arguments
	DefaultAddr string
	Version     string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "pf",
		Short: "Retrieval-augmented prompt generation with security guardrails",
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
	root.SetIn(strings.NewReader(""))

	root.AddCommand(serveCommand(deps))
	root.AddCommand(generateCommand(deps.Generator, inReader))
	root.AddCommand(ingestCommand(deps.Ingestor, inReader))
	root.AddCommand(docsCommand(deps.Ingestor))
	root.AddCommand(seedCommand(deps.Ingestor))

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
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func serveCommand(deps Dependencies) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.Serve == nil {
				return fmt.Errorf("server is not configured")
			}
			return deps.Serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", deps.DefaultAddr, "Listen address")
	return cmd
}

func generateCommand(generator Generator, in io.Reader) *cobra.Command {
	var (
		targetModel  string
		promptStyle  string
		outputFormat string
		constraints  []string
		contextFile  string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "generate [request]",
		Short: "Generate a prompt for a request",
		Long: "Generate a prompt for the given request. The request is read from the\n" +
			"argument, or from stdin when no argument is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userRequest, err := readInput(args, in)
			if err != nil {
				return err
			}

			var contextText string
			if contextFile != "" {
				raw, err := os.ReadFile(contextFile)
				if err != nil {
					return fmt.Errorf("read context file: %w", err)
				}
				contextText = string(raw)
			}

			resp, err := generator.Generate(cmd.Context(), generate.Request{
				UserRequest:  userRequest,
				Context:      contextText,
				Constraints:  constraints,
				TargetModel:  domain.TargetModel(targetModel),
				PromptStyle:  domain.PromptStyle(promptStyle),
				OutputFormat: domain.OutputFormat(outputFormat),
			})
			if err != nil {
				return err
			}

			for _, w := range resp.Warnings {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), resp.FinalPrompt)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetModel, "model", string(domain.TargetGeneric), "Target model: gemini, claude, gpt, generic")
	cmd.Flags().StringVar(&promptStyle, "style", string(domain.StyleDetailed), "Prompt style: concise, detailed, step_by_step")
	cmd.Flags().StringVar(&outputFormat, "format", string(domain.FormatPlain), "Output format: plain, json")
	cmd.Flags().StringArrayVar(&constraints, "constraint", nil, "Constraint to include (repeatable)")
	cmd.Flags().StringVar(&contextFile, "context-file", "", "File with project context")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full response as JSON")
	return cmd
}

func ingestCommand(ingestor Ingestor, in io.Reader) *cobra.Command {
	var (
		title   string
		docType string
		version string
		file    string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Add a document to the knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			var content string
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read document: %w", err)
				}
				content = string(raw)

				ext := strings.ToLower(filepath.Ext(file))
				if ext == ".html" || ext == ".htm" {
					htmlTitle, text, err := docsource.ExtractHTML(content)
					if err != nil {
						return fmt.Errorf("extract html: %w", err)
					}
					content = text
					if title == "" {
						title = htmlTitle
					}
				}
			} else {
				raw, err := io.ReadAll(in)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				content = string(raw)
			}

			if title == "" {
				return fmt.Errorf("--title is required")
			}

			result, err := ingestor.Ingest(cmd.Context(), ingest.Request{
				Title:   title,
				DocType: docType,
				Content: content,
				Version: version,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (%d chunks)\n", result.DocID, result.ChunkCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Document title")
	cmd.Flags().StringVar(&docType, "type", domain.DocTypePromptPattern, "Document type: prompt_pattern, skill_card, security_guideline")
	cmd.Flags().StringVar(&version, "doc-version", "1.0", "Document version")
	cmd.Flags().StringVar(&file, "file", "", "Document file (stdin when omitted)")
	return cmd
}

func docsCommand(ingestor Ingestor) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Inspect the knowledge base",
	}

	var docType string
	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := ingestor.List(cmd.Context(), docType, limit)
			if err != nil {
				return err
			}
			for _, d := range docs {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d chunks\n", d.DocID, d.DocType, d.Title, d.ChunkCount)
			}
			if len(docs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no documents")
			}
			return nil
		},
	}
	listCmd.Flags().StringVar(&docType, "type", "", "Filter by document type")
	listCmd.Flags().IntVar(&limit, "limit", 100, "Maximum documents to list")

	deleteCmd := &cobra.Command{
		Use:   "delete <doc-id>",
		Short: "Delete a document and its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deleted, err := ingestor.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s (%d chunks)\n", args[0], deleted)
			return nil
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := ingestor.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}

	cmd.AddCommand(listCmd, deleteCmd, statsCmd)
	return cmd
}

func seedCommand(ingestor Ingestor) *cobra.Command {
	var repoDir string
	var subdir string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Ingest seed documents from a git repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			source := docsource.NewGitSource(repoDir, subdir)
			docs, version, err := source.Load()
			if err != nil {
				return err
			}

			ingested := 0
			for _, doc := range docs {
				if _, err := ingestor.Ingest(cmd.Context(), doc); err != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "skipping %q: %v\n", doc.Title, err)
					continue
				}
				ingested++
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d of %d documents at %s\n", ingested, len(docs), version)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "Git repository with seed documents")
	cmd.Flags().StringVar(&subdir, "subdir", "", "Only load documents under this directory")
	return cmd
}

func readInput(args []string, in io.Reader) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(raw), nil
}

// writeJSON prints indented JSON, colorized when stdout is a terminal.
func writeJSON(w io.Writer, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	out := pretty.Pretty(raw)
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		out = pretty.Color(out, nil)
	}
	_, err = w.Write(out)
	return err
}
