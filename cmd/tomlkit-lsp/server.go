package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/signadot/tomlkit/config"
	"github.com/signadot/tomlkit/diagnostic"
	"github.com/signadot/tomlkit/schemastore"
	"github.com/signadot/tomlkit/validate"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

type Server struct {
	cfg  *ServeConfig
	reg  prometheus.Registerer
	conn jsonrpc2.Conn
	docs *documentStore

	mu      sync.RWMutex
	project *config.Config
	store   *schemastore.Store
	vopts   validate.Options
}

func newServer(cfg *ServeConfig, reg prometheus.Registerer) *Server {
	return &Server{
		cfg:  cfg,
		reg:  reg,
		docs: &documentStore{docs: make(map[string]*document)},
	}
}

// initOptions are the initializationOptions a client may send.
type initOptions struct {
	// Rules override the configured diagnostic levels by code.
	Rules  map[string]string `json:"rules"`
	Strict *bool             `json:"strict"`
}

func parseInitOptions(v any) (*initOptions, error) {
	opts := &initOptions{}
	if v == nil {
		return opts, nil
	}
	d, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(d, opts); err != nil {
		return nil, fmt.Errorf("initializationOptions: %w", err)
	}
	return opts, nil
}

// filename returns the local path of a file URI, empty for other schemes.
func filename(u string) string {
	if !strings.HasPrefix(u, uri.FileScheme+":") {
		return ""
	}
	return uri.URI(u).Filename()
}

func (s *Server) loadProject(ctx context.Context, root string) error {
	var (
		c   *config.Config
		err error
	)
	switch {
	case s.cfg.Config != "":
		c, err = config.Load(s.cfg.Config)
	case root != "":
		c, err = config.Discover(root)
	default:
		c, err = config.Discover(".")
	}
	if err != nil {
		return err
	}
	if s.cfg.Offline {
		c.Schema.Offline = true
	}
	vopts, err := c.ValidateOptions()
	if err != nil {
		return err
	}
	st, err := c.NewStore(ctx, s.reg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project, s.store, s.vopts = c, st, vopts
	return nil
}

func (s *Server) options() validate.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vopts
}

// schemaContext returns the schemas of doc, nil when there are none.
func (s *Server) schemaContext(ctx context.Context, d *document) *schemastore.SchemaContext {
	s.mu.RLock()
	c, st := s.project, s.store
	s.mu.RUnlock()
	if c == nil || !c.SchemaEnabled() {
		return nil
	}
	sc, err := st.Context(ctx, d.name, d.tree)
	if err != nil {
		theLog.Warn("schema unavailable", "uri", d.uri, "error", err)
	}
	return sc
}

func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	opts, err := parseInitOptions(params.InitializationOptions)
	if err != nil {
		return nil, err
	}
	root := ""
	if len(params.WorkspaceFolders) != 0 {
		root = filename(params.WorkspaceFolders[0].URI)
	} else if params.RootURI != "" {
		root = filename(string(params.RootURI))
	}
	if err := s.loadProject(ctx, root); err != nil {
		return nil, err
	}
	if len(opts.Rules) != 0 || opts.Strict != nil {
		rules, err := diagnostic.ParseRules(opts.Rules)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.vopts.Rules = s.vopts.Rules.With(rules)
		if opts.Strict != nil {
			s.vopts.Strict = *opts.Strict
		}
		s.mu.Unlock()
	}
	theLog.Info("initialized", "root", root, "client", clientName(params.ClientInfo))

	capabilities := protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			Change:    protocol.TextDocumentSyncKindFull,
			OpenClose: true,
			Save:      &protocol.SaveOptions{IncludeText: false},
		},
		HoverProvider:              true,
		DocumentFormattingProvider: true,
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{".", "=", "[", "{", ",", " "},
		},
		SemanticTokensProvider: map[string]interface{}{
			"full":  true,
			"range": true,
			"legend": protocol.SemanticTokensLegend{
				TokenTypes:     tokenTypes,
				TokenModifiers: tokenModifiers,
			},
		},
	}

	return &protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.ServerInfo{
			Name:    lsName,
			Version: version,
		},
	}, nil
}

func clientName(ci *protocol.ClientInfo) string {
	if ci == nil {
		return ""
	}
	return ci.Name
}

func (s *Server) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	return s.conn.Close()
}

func (s *Server) SetTrace(ctx context.Context, params *protocol.SetTraceParams) error {
	return nil
}

// DidChangeWatchedFiles reloads the configuration when a tomlkit.toml
// changes, and revalidates open documents.
func (s *Server) DidChangeWatchedFiles(ctx context.Context, params *protocol.DidChangeWatchedFilesParams) error {
	for _, ch := range params.Changes {
		if !strings.HasSuffix(string(ch.URI), "/"+config.FileName) {
			continue
		}
		s.mu.RLock()
		dir := ""
		if s.project != nil {
			dir = s.project.Dir
		}
		s.mu.RUnlock()
		if err := s.loadProject(ctx, dir); err != nil {
			theLog.Warn("reloading configuration", "error", err)
			return nil
		}
		for _, d := range s.docs.all() {
			s.publishDiagnostics(ctx, d)
		}
		return nil
	}
	return nil
}

func (s *Server) WorkDoneProgressCancel(ctx context.Context, params *protocol.WorkDoneProgressCancelParams) error {
	return nil
}
func (s *Server) LogTrace(ctx context.Context, params *protocol.LogTraceParams) error { return nil }
func (s *Server) CodeAction(ctx context.Context, params *protocol.CodeActionParams) ([]protocol.CodeAction, error) {
	return nil, nil
}
func (s *Server) CodeLens(ctx context.Context, params *protocol.CodeLensParams) ([]protocol.CodeLens, error) {
	return nil, nil
}
func (s *Server) CodeLensResolve(ctx context.Context, params *protocol.CodeLens) (*protocol.CodeLens, error) {
	return nil, nil
}
func (s *Server) ColorPresentation(ctx context.Context, params *protocol.ColorPresentationParams) ([]protocol.ColorPresentation, error) {
	return nil, nil
}
func (s *Server) CompletionResolve(ctx context.Context, params *protocol.CompletionItem) (*protocol.CompletionItem, error) {
	return params, nil
}
func (s *Server) Declaration(ctx context.Context, params *protocol.DeclarationParams) ([]protocol.Location, error) {
	return nil, nil
}
func (s *Server) Definition(ctx context.Context, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	return nil, nil
}
func (s *Server) DidChangeConfiguration(ctx context.Context, params *protocol.DidChangeConfigurationParams) error {
	return nil
}
func (s *Server) DidChangeWorkspaceFolders(ctx context.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	return nil
}
func (s *Server) DocumentColor(ctx context.Context, params *protocol.DocumentColorParams) ([]protocol.ColorInformation, error) {
	return nil, nil
}
func (s *Server) DocumentHighlight(ctx context.Context, params *protocol.DocumentHighlightParams) ([]protocol.DocumentHighlight, error) {
	return nil, nil
}
func (s *Server) DocumentLink(ctx context.Context, params *protocol.DocumentLinkParams) ([]protocol.DocumentLink, error) {
	return nil, nil
}
func (s *Server) DocumentLinkResolve(ctx context.Context, params *protocol.DocumentLink) (*protocol.DocumentLink, error) {
	return nil, nil
}
func (s *Server) DocumentSymbol(ctx context.Context, params *protocol.DocumentSymbolParams) ([]interface{}, error) {
	return nil, nil
}
func (s *Server) ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (interface{}, error) {
	return nil, nil
}
func (s *Server) FoldingRanges(ctx context.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	return nil, nil
}
func (s *Server) Implementation(ctx context.Context, params *protocol.ImplementationParams) ([]protocol.Location, error) {
	return nil, nil
}
func (s *Server) OnTypeFormatting(ctx context.Context, params *protocol.DocumentOnTypeFormattingParams) ([]protocol.TextEdit, error) {
	return nil, nil
}
func (s *Server) PrepareRename(ctx context.Context, params *protocol.PrepareRenameParams) (*protocol.Range, error) {
	return nil, nil
}
func (s *Server) RangeFormatting(ctx context.Context, params *protocol.DocumentRangeFormattingParams) ([]protocol.TextEdit, error) {
	return nil, nil
}
func (s *Server) References(ctx context.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	return nil, nil
}
func (s *Server) Rename(ctx context.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	return nil, nil
}
func (s *Server) SignatureHelp(ctx context.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	return nil, nil
}
func (s *Server) Symbols(ctx context.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	return nil, nil
}
func (s *Server) TypeDefinition(ctx context.Context, params *protocol.TypeDefinitionParams) ([]protocol.Location, error) {
	return nil, nil
}
func (s *Server) WillSave(ctx context.Context, params *protocol.WillSaveTextDocumentParams) error {
	return nil
}
func (s *Server) WillSaveWaitUntil(ctx context.Context, params *protocol.WillSaveTextDocumentParams) ([]protocol.TextEdit, error) {
	return nil, nil
}
func (s *Server) ShowDocument(ctx context.Context, params *protocol.ShowDocumentParams) (*protocol.ShowDocumentResult, error) {
	return nil, nil
}
func (s *Server) WillCreateFiles(ctx context.Context, params *protocol.CreateFilesParams) (*protocol.WorkspaceEdit, error) {
	return nil, nil
}
func (s *Server) DidCreateFiles(ctx context.Context, params *protocol.CreateFilesParams) error {
	return nil
}
func (s *Server) WillRenameFiles(ctx context.Context, params *protocol.RenameFilesParams) (*protocol.WorkspaceEdit, error) {
	return nil, nil
}
func (s *Server) DidRenameFiles(ctx context.Context, params *protocol.RenameFilesParams) error {
	return nil
}
func (s *Server) WillDeleteFiles(ctx context.Context, params *protocol.DeleteFilesParams) (*protocol.WorkspaceEdit, error) {
	return nil, nil
}
func (s *Server) DidDeleteFiles(ctx context.Context, params *protocol.DeleteFilesParams) error {
	return nil
}
func (s *Server) CodeLensRefresh(ctx context.Context) error { return nil }
func (s *Server) PrepareCallHierarchy(ctx context.Context, params *protocol.CallHierarchyPrepareParams) ([]protocol.CallHierarchyItem, error) {
	return nil, nil
}
func (s *Server) IncomingCalls(ctx context.Context, params *protocol.CallHierarchyIncomingCallsParams) ([]protocol.CallHierarchyIncomingCall, error) {
	return nil, nil
}
func (s *Server) OutgoingCalls(ctx context.Context, params *protocol.CallHierarchyOutgoingCallsParams) ([]protocol.CallHierarchyOutgoingCall, error) {
	return nil, nil
}
func (s *Server) SemanticTokensFullDelta(ctx context.Context, params *protocol.SemanticTokensDeltaParams) (interface{}, error) {
	return nil, nil
}
func (s *Server) SemanticTokensRefresh(ctx context.Context) error { return nil }
func (s *Server) LinkedEditingRange(ctx context.Context, params *protocol.LinkedEditingRangeParams) (*protocol.LinkedEditingRanges, error) {
	return nil, nil
}
func (s *Server) Moniker(ctx context.Context, params *protocol.MonikerParams) ([]protocol.Moniker, error) {
	return nil, nil
}
func (s *Server) Request(ctx context.Context, method string, params interface{}) (interface{}, error) {
	return nil, nil
}
