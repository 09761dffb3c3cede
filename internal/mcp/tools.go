package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	studyctx "github.com/studybuddy/studybuddy/internal/context"
)

func (s *Server) handleAskTutor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	sess := s.store.Load(s.key)
	answer, answerErr := s.tutor.Answer(ctx, sess, question)
	if answerErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to answer: %v", answerErr)), nil
	}
	return mcp.NewToolResultText(answer), nil
}

func (s *Server) handleStudyContext(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.store.Load(s.key)
	assembled := s.assembler.Assemble(ctx, []studyctx.Source{studyctx.SourceDocuments, studyctx.SourceChat}, sess)
	if assembled == "" {
		return mcp.NewToolResultText("No study material available. Ingest a document or chat first."), nil
	}
	return mcp.NewToolResultText(assembled), nil
}

func (s *Server) handleSessionStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.store.Load(s.key)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Session: %s\n", s.key)
	fmt.Fprintf(&sb, "Score:   %d\n", sess.Score)
	fmt.Fprintf(&sb, "Quiz questions answered: %d\n", len(sess.QuizHistory))
	fmt.Fprintf(&sb, "Chat messages: %d\n", len(sess.ChatHistory))
	if sess.DocumentText != "" {
		fmt.Fprintf(&sb, "Documents: %d characters ingested\n", len(sess.DocumentText))
	} else {
		sb.WriteString("Documents: none\n")
	}
	fmt.Fprintf(&sb, "Agent calls: %d (avg %.2fs)\n", sess.Metrics.Calls, sess.Metrics.AvgLatency)
	fmt.Fprintf(&sb, "Feedback: %d positive, %d negative\n",
		sess.Metrics.PositiveFeedback, sess.Metrics.NegativeFeedback)

	return mcp.NewToolResultText(sb.String()), nil
}
