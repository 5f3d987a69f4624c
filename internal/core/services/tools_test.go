package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concierge-hq/concierge/internal/adapters/driven/storage/memory"
	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// ---- fakes ----

type fakeTokenProvider struct {
	tokens      []string
	errs        []error
	call        int
	invalidated int
}

func (f *fakeTokenProvider) Token(context.Context) (string, error) {
	i := f.call
	f.call++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	token := ""
	if i < len(f.tokens) {
		token = f.tokens[i]
	}
	return token, err
}

func (f *fakeTokenProvider) Invalidate() { f.invalidated++ }

type fakeTokenFactory struct {
	provider *fakeTokenProvider
}

func (f *fakeTokenFactory) For(string, domain.Provider) driven.TokenProvider {
	return f.provider
}

type fakeCRM struct {
	contacts []domain.Contact
	errs     []error
	call     int
	tokens   []string
	limits   []int
}

func (f *fakeCRM) ListContacts(_ context.Context, token string, limit int) ([]domain.Contact, error) {
	i := f.call
	f.call++
	f.tokens = append(f.tokens, token)
	f.limits = append(f.limits, limit)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return f.contacts, nil
}

// ---- harness ----

type toolHarness struct {
	executor driven.ToolExecutor
	vectors  *memory.VectorStore
	embedder *fakeEmbedder
	crm      *fakeCRM
	tokens   *fakeTokenProvider
}

func newToolHarness(t *testing.T) *toolHarness {
	t.Helper()
	h := &toolHarness{
		vectors:  memory.NewVectorStore(),
		embedder: &fakeEmbedder{},
		crm:      &fakeCRM{},
		tokens:   &fakeTokenProvider{tokens: []string{"crm-token", "crm-token-2"}},
	}
	toolset := NewToolset(h.vectors, h.embedder, h.crm, &fakeTokenFactory{provider: h.tokens})
	h.executor = toolset.ForUser("user-1")
	return h
}

func (h *toolHarness) seedDocs(t *testing.T, userID string, n int) {
	t.Helper()
	records := make([]domain.VectorRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, domain.VectorRecord{
			UserID:    userID,
			Provider:  domain.ProviderNotion,
			RecordID:  fmt.Sprintf("page-%d", i),
			Title:     fmt.Sprintf("Page %d", i),
			Content:   fmt.Sprintf("Content of page %d", i),
			Embedding: []float32{float32(10 + i), 1, 0},
		})
	}
	require.NoError(t, h.vectors.Upsert(context.Background(), records))
}

func execute(t *testing.T, executor driven.ToolExecutor, name, args string) string {
	t.Helper()
	return executor.Execute(context.Background(), domain.ToolCall{ID: "call-1", Name: name, Arguments: args})
}

// ---- tests ----

func TestDefinitions_CoversAllTools(t *testing.T) {
	h := newToolHarness(t)

	defs := h.executor.Definitions()
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
		assert.NotEmpty(t, def.Description)
		assert.Equal(t, "object", def.Parameters["type"])
	}
	assert.ElementsMatch(t, []string{
		domain.ToolSearchDocuments, domain.ToolSearchEmail, domain.ToolFetchContacts,
	}, names)
}

func TestSearchDocuments_ReturnsHits(t *testing.T) {
	h := newToolHarness(t)
	h.seedDocs(t, "user-1", 3)

	payload := execute(t, h.executor, domain.ToolSearchDocuments, `{"query":"pages","top_k":3}`)

	result, ok := domain.ParseToolResult(domain.ToolSearchDocuments, payload).(domain.DocumentHits)
	require.True(t, ok, payload)
	assert.Equal(t, 3, result.Count)
	assert.Len(t, result.Results, 3)
	assert.NotEmpty(t, result.Results[0].Title)
}

func TestSearch_TopKDefaultsAndClamps(t *testing.T) {
	h := newToolHarness(t)
	h.seedDocs(t, "user-1", 12)

	// Omitted top_k defaults to 5.
	payload := execute(t, h.executor, domain.ToolSearchDocuments, `{"query":"pages"}`)
	result := domain.ParseToolResult(domain.ToolSearchDocuments, payload).(domain.DocumentHits)
	assert.Equal(t, DefaultTopK, result.Count)

	// Oversized top_k clamps to the maximum.
	payload = execute(t, h.executor, domain.ToolSearchDocuments, `{"query":"pages","top_k":50}`)
	result = domain.ParseToolResult(domain.ToolSearchDocuments, payload).(domain.DocumentHits)
	assert.Equal(t, MaxTopK, result.Count)
}

func TestSearch_EmptyQuery(t *testing.T) {
	h := newToolHarness(t)

	payload := execute(t, h.executor, domain.ToolSearchDocuments, `{"query":"  "}`)

	result, ok := domain.ParseToolResult(domain.ToolSearchDocuments, payload).(domain.ErrorResult)
	require.True(t, ok, payload)
	assert.Contains(t, result.Error, "query")
}

func TestSearch_ScopedToUser(t *testing.T) {
	h := newToolHarness(t)
	h.seedDocs(t, "someone-else", 4)

	payload := execute(t, h.executor, domain.ToolSearchDocuments, `{"query":"pages"}`)

	result := domain.ParseToolResult(domain.ToolSearchDocuments, payload).(domain.DocumentHits)
	assert.Equal(t, 0, result.Count)
	assert.NotNil(t, result.Results)
}

func TestSearch_NotConnected(t *testing.T) {
	h := newToolHarness(t)
	h.seedDocs(t, "someone-else", 4)
	h.tokens.errs = []error{domain.ErrAccountNotConnected, domain.ErrAccountNotConnected}

	payload := execute(t, h.executor, domain.ToolSearchDocuments, `{"query":"roadmap"}`)

	result, ok := domain.ParseToolResult(domain.ToolSearchDocuments, payload).(domain.ErrorResult)
	require.True(t, ok, payload)
	assert.Contains(t, result.Error, "notion account not connected")
	assert.Equal(t, 0, h.embedder.calls)

	payload = execute(t, h.executor, domain.ToolSearchEmail, `{"query":"invoice"}`)

	result, ok = domain.ParseToolResult(domain.ToolSearchEmail, payload).(domain.ErrorResult)
	require.True(t, ok, payload)
	assert.Contains(t, result.Error, "gmail account not connected")
}

func TestSearchEmail_ClipsBodies(t *testing.T) {
	h := newToolHarness(t)
	require.NoError(t, h.vectors.Upsert(context.Background(), []domain.VectorRecord{{
		UserID:    "user-1",
		Provider:  domain.ProviderGmail,
		RecordID:  "msg-1",
		Title:     "Quarterly report",
		Sender:    "alice@example.com",
		Content:   strings.Repeat("long body ", 200),
		Embedding: []float32{10, 1, 0},
	}}))

	payload := execute(t, h.executor, domain.ToolSearchEmail, `{"query":"report"}`)

	result, ok := domain.ParseToolResult(domain.ToolSearchEmail, payload).(domain.EmailHits)
	require.True(t, ok, payload)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "Quarterly report", result.Results[0].Subject)
	assert.Equal(t, "alice@example.com", result.Results[0].Sender)
	assert.LessOrEqual(t, len(result.Results[0].Content), maxEmailSnippet)
}

func TestClip_PreservesRuneBoundaries(t *testing.T) {
	s := strings.Repeat("\u4e16", maxEmailSnippet)
	out := clip(s, maxEmailSnippet)

	assert.LessOrEqual(t, len(out), maxEmailSnippet)
	assert.True(t, utf8.ValidString(out))
}

func TestFetchContacts_DefaultLimitAndFilter(t *testing.T) {
	h := newToolHarness(t)
	h.crm.contacts = []domain.Contact{
		{Name: "Alice Nguyen", Email: "alice@acme.test", Company: "Acme"},
		{Name: "Bob Okafor", Email: "bob@other.test", Company: "Other Co"},
		{Name: "Carol Accardi", Email: "carol@example.test"},
	}

	payload := execute(t, h.executor, domain.ToolFetchContacts, `{"query":"ac"}`)

	result, ok := domain.ParseToolResult(domain.ToolFetchContacts, payload).(domain.ContactHits)
	require.True(t, ok, payload)
	// "ac" matches Acme, alice@acme.test and Accardi, not Bob.
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, []int{DefaultContactLimit}, h.crm.limits)
}

func TestFetchContacts_NoArguments(t *testing.T) {
	h := newToolHarness(t)
	h.crm.contacts = []domain.Contact{{Name: "Alice"}}

	payload := execute(t, h.executor, domain.ToolFetchContacts, "")

	result, ok := domain.ParseToolResult(domain.ToolFetchContacts, payload).(domain.ContactHits)
	require.True(t, ok, payload)
	assert.Equal(t, 1, result.Count)
}

func TestFetchContacts_RetriesOnceAfterAuthExpiry(t *testing.T) {
	h := newToolHarness(t)
	h.crm.contacts = []domain.Contact{{Name: "Alice"}}
	h.crm.errs = []error{domain.ErrAuthExpired, nil}

	payload := execute(t, h.executor, domain.ToolFetchContacts, `{}`)

	result, ok := domain.ParseToolResult(domain.ToolFetchContacts, payload).(domain.ContactHits)
	require.True(t, ok, payload)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, 1, h.tokens.invalidated)
	assert.Equal(t, []string{"crm-token", "crm-token-2"}, h.crm.tokens)
}

func TestFetchContacts_SecondAuthFailureSurfacesError(t *testing.T) {
	h := newToolHarness(t)
	h.crm.errs = []error{domain.ErrAuthExpired, domain.ErrAuthExpired}

	payload := execute(t, h.executor, domain.ToolFetchContacts, `{}`)

	result, ok := domain.ParseToolResult(domain.ToolFetchContacts, payload).(domain.ErrorResult)
	require.True(t, ok, payload)
	assert.Contains(t, result.Error, "reconnect")
	// Exactly one retry.
	assert.Equal(t, 2, h.crm.call)
}

func TestFetchContacts_NotConnected(t *testing.T) {
	h := newToolHarness(t)
	h.tokens.errs = []error{domain.ErrAccountNotConnected}

	payload := execute(t, h.executor, domain.ToolFetchContacts, `{}`)

	result, ok := domain.ParseToolResult(domain.ToolFetchContacts, payload).(domain.ErrorResult)
	require.True(t, ok, payload)
	assert.Contains(t, result.Error, "not connected")
	assert.Equal(t, 0, h.crm.call)
}

func TestExecute_UnknownTool(t *testing.T) {
	h := newToolHarness(t)

	payload := execute(t, h.executor, "launch_rocket", `{}`)

	var result domain.ErrorResult
	require.NoError(t, json.Unmarshal([]byte(payload), &result))
	assert.Contains(t, result.Error, "unknown tool")
}

func TestExecute_MalformedArguments(t *testing.T) {
	h := newToolHarness(t)

	payload := execute(t, h.executor, domain.ToolSearchDocuments, `{"query":`)

	var result domain.ErrorResult
	require.NoError(t, json.Unmarshal([]byte(payload), &result))
	assert.Contains(t, result.Error, "invalid arguments")
}
