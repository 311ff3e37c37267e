package cli_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/internal/adapter/cli"
	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/usecase/generate"
	"github.com/promptforge/promptforge/internal/usecase/ingest"
)

type fakeGenerator struct {
	lastRequest generate.Request
	response    *generate.Response
	err         error
}

func (f *fakeGenerator) Generate(_ context.Context, req generate.Request) (*generate.Response, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

type fakeIngestor struct {
	lastRequest ingest.Request
	docs        []domain.DocumentInfo
	deleted     []string
}

func (f *fakeIngestor) Ingest(_ context.Context, req ingest.Request) (ingest.Result, error) {
	f.lastRequest = req
	return ingest.Result{DocID: "doc_abc123", ChunkCount: 2, Message: "ok"}, nil
}

func (f *fakeIngestor) List(_ context.Context, docType string, limit int) ([]domain.DocumentInfo, error) {
	return f.docs, nil
}

func (f *fakeIngestor) Delete(_ context.Context, docID string) (int, error) {
	f.deleted = append(f.deleted, docID)
	return 3, nil
}

func (f *fakeIngestor) Stats(_ context.Context) (ingest.Stats, error) {
	return ingest.Stats{TotalDocuments: 1, TotalChunks: 2, ByType: map[string]int{"skill_card": 1}}, nil
}

func newCLI(generator *fakeGenerator, ingestor *fakeIngestor, stdin string) (*bytes.Buffer, *bytes.Buffer, cli.Dependencies) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	deps := cli.Dependencies{
		Generator: generator,
		Ingestor:  ingestor,
		Args: cli.Arguments{
			OutWriter: out,
			ErrWriter: errOut,
			InReader:  strings.NewReader(stdin),
		},
		DefaultAddr: ":8080",
		Version:     "v1.2.3",
	}
	return out, errOut, deps
}

func execute(deps cli.Dependencies, args ...string) error {
	root := cli.NewRootCommand(deps)
	root.SetArgs(args)
	return root.Execute()
}

func TestVersionFlag(t *testing.T) {
	out, _, deps := newCLI(&fakeGenerator{}, &fakeIngestor{}, "")

	err := execute(deps, "--version")
	assert.ErrorIs(t, err, cli.ErrVersionRequested)
	assert.Equal(t, "v1.2.3\n", out.String())
}

func TestGenerateCommand(t *testing.T) {
	generator := &fakeGenerator{response: &generate.Response{
		FinalPrompt: "# Role\nYou are a helpful assistant.",
		Warnings:    []string{"retrieval unavailable for skills"},
	}}
	out, errOut, deps := newCLI(generator, &fakeIngestor{}, "")

	err := execute(deps, "generate", "Write a prompt for code review",
		"--model", "claude", "--style", "concise", "--constraint", "cite sources")
	require.NoError(t, err)

	assert.Equal(t, "Write a prompt for code review", generator.lastRequest.UserRequest)
	assert.Equal(t, domain.TargetClaude, generator.lastRequest.TargetModel)
	assert.Equal(t, domain.StyleConcise, generator.lastRequest.PromptStyle)
	assert.Equal(t, []string{"cite sources"}, generator.lastRequest.Constraints)
	assert.Contains(t, out.String(), "helpful assistant")
	assert.Contains(t, errOut.String(), "retrieval unavailable")
}

func TestGenerateCommand_ReadsStdin(t *testing.T) {
	generator := &fakeGenerator{response: &generate.Response{FinalPrompt: "prompt"}}
	_, _, deps := newCLI(generator, &fakeIngestor{}, "Summarize long documents")

	err := execute(deps, "generate")
	require.NoError(t, err)
	assert.Equal(t, "Summarize long documents", generator.lastRequest.UserRequest)
}

func TestGenerateCommand_JSONOutput(t *testing.T) {
	generator := &fakeGenerator{response: &generate.Response{FinalPrompt: "prompt"}}
	out, _, deps := newCLI(generator, &fakeIngestor{}, "")

	err := execute(deps, "generate", "build a prompt", "--json")
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"finalPrompt"`)
}

func TestGenerateCommand_PropagatesError(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("pipeline exploded")}
	_, _, deps := newCLI(generator, &fakeIngestor{}, "")

	err := execute(deps, "generate", "anything")
	assert.ErrorContains(t, err, "pipeline exploded")
}

func TestIngestCommand_FromStdin(t *testing.T) {
	ingestor := &fakeIngestor{}
	out, _, deps := newCLI(&fakeGenerator{}, ingestor, "## Pattern\n\nSome template.")

	err := execute(deps, "ingest", "--title", "My Pattern", "--type", "prompt_pattern")
	require.NoError(t, err)

	assert.Equal(t, "My Pattern", ingestor.lastRequest.Title)
	assert.Equal(t, "prompt_pattern", ingestor.lastRequest.DocType)
	assert.Contains(t, ingestor.lastRequest.Content, "Some template.")
	assert.Contains(t, out.String(), "doc_abc123 (2 chunks)")
}

func TestIngestCommand_RequiresTitle(t *testing.T) {
	_, _, deps := newCLI(&fakeGenerator{}, &fakeIngestor{}, "content")

	err := execute(deps, "ingest")
	assert.ErrorContains(t, err, "--title is required")
}

func TestDocsListCommand(t *testing.T) {
	ingestor := &fakeIngestor{docs: []domain.DocumentInfo{
		{DocID: "skill_card_rev_123456", Title: "Review", DocType: "skill_card", ChunkCount: 1},
	}}
	out, _, deps := newCLI(&fakeGenerator{}, ingestor, "")

	err := execute(deps, "docs", "list")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "skill_card_rev_123456")
	assert.Contains(t, out.String(), "Review")
}

func TestDocsListCommand_Empty(t *testing.T) {
	out, _, deps := newCLI(&fakeGenerator{}, &fakeIngestor{}, "")

	err := execute(deps, "docs", "list")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "no documents")
}

func TestDocsDeleteCommand(t *testing.T) {
	ingestor := &fakeIngestor{}
	out, _, deps := newCLI(&fakeGenerator{}, ingestor, "")

	err := execute(deps, "docs", "delete", "doc_xyz")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc_xyz"}, ingestor.deleted)
	assert.Contains(t, out.String(), "deleted doc_xyz (3 chunks)")
}

func TestDocsStatsCommand(t *testing.T) {
	out, _, deps := newCLI(&fakeGenerator{}, &fakeIngestor{}, "")

	err := execute(deps, "docs", "stats")
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"TotalChunks"`)
}

func TestServeCommand_Unconfigured(t *testing.T) {
	_, _, deps := newCLI(&fakeGenerator{}, &fakeIngestor{}, "")
	deps.Serve = nil

	err := execute(deps, "serve")
	assert.ErrorContains(t, err, "server is not configured")
}

func TestServeCommand_UsesAddrFlag(t *testing.T) {
	var gotAddr string
	_, _, deps := newCLI(&fakeGenerator{}, &fakeIngestor{}, "")
	deps.Serve = func(_ context.Context, addr string) error {
		gotAddr = addr
		return nil
	}

	err := execute(deps, "serve", "--addr", ":9999")
	require.NoError(t, err)
	assert.Equal(t, ":9999", gotAddr)
}
