// Package mcp exposes the study assistant over the Model Context
// Protocol so other tools can ask questions and inspect session state.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	studyctx "github.com/studybuddy/studybuddy/internal/context"
	"github.com/studybuddy/studybuddy/internal/session"
	"github.com/studybuddy/studybuddy/internal/tutor"
)

// Server wires the session store and tutor into MCP tools served over
// stdio.
type Server struct {
	store     *session.Store
	tutor     *tutor.Tutor
	assembler *studyctx.Assembler
	key       string
}

// NewServer creates an MCP Server over the given session key.
func NewServer(store *session.Store, tut *tutor.Tutor, assembler *studyctx.Assembler, key string) *Server {
	return &Server{store: store, tutor: tut, assembler: assembler, key: key}
}

// Serve registers the tools and blocks serving stdio until the client
// disconnects.
func (s *Server) Serve(version string) error {
	srv := server.NewMCPServer(
		"studybuddy",
		version,
		server.WithToolCapabilities(false),
	)

	srv.AddTool(mcp.NewTool("ask_tutor",
		mcp.WithDescription("Ask the study tutor a question. Answers are grounded in the ingested documents and the session's conversation, with source citations."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
	), s.handleAskTutor)

	srv.AddTool(mcp.NewTool("study_context",
		mcp.WithDescription("Return the assembled study context: ingested documents plus the compacted chat history."),
	), s.handleStudyContext)

	srv.AddTool(mcp.NewTool("session_status",
		mcp.WithDescription("Report the session's quiz score, history counts, and agent metrics."),
	), s.handleSessionStatus)

	return server.ServeStdio(srv)
}
