// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kurisu-assistant/kurisu-tui/internal/api"
	"github.com/kurisu-assistant/kurisu-tui/internal/model"
)

// =============================================================================
// APP COMMANDS
// =============================================================================

// healthCmd probes the server. The client starts either way; failure
// only surfaces as a toast.
func healthCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		return HealthCheckedMsg{Err: client.Health(context.Background())}
	}
}

// loginCmd exchanges credentials for a token.
func loginCmd(client *api.Client, username, password string, register, remember bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		var token *api.TokenResponse
		var err error
		if register {
			token, err = client.Register(ctx, username, password)
		} else {
			token, err = client.Login(ctx, username, password)
		}
		if err != nil {
			return AuthFailedMsg{Err: err}
		}

		user, err := client.Me(ctx)
		if err != nil {
			return AuthFailedMsg{Err: err}
		}

		return AuthSucceededMsg{
			Token:      token.AccessToken,
			User:       user,
			RememberMe: remember,
		}
	}
}

// reauthCmd validates a persisted token with GET /users/me. The token is
// already installed on the client; failure purges it.
func reauthCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		user, err := client.Me(context.Background())
		if err != nil {
			return AuthFailedMsg{Err: err, FromStoredToken: true}
		}
		return AuthSucceededMsg{User: user}
	}
}

// conversationsCmd fetches the sidebar summaries.
func conversationsCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		summaries, err := client.ListConversations(context.Background())
		if err != nil {
			return ConversationsFailedMsg{Err: err}
		}
		out := make([]model.Summary, 0, len(summaries))
		for _, s := range summaries {
			out = append(out, model.Summary{
				ID:         s.ID,
				Title:      s.Title,
				ChunkCount: s.ChunkCount,
				CreatedAt:  s.CreatedAt,
				UpdatedAt:  s.UpdatedAt,
			})
		}
		return ConversationsLoadedMsg{Summaries: out}
	}
}

// modelsCmd fetches the model names for the picker.
func modelsCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		models, err := client.ListModels(context.Background())
		if err != nil {
			// The picker just stays empty; the toast explains why.
			return ConversationsFailedMsg{Err: err}
		}
		return ModelsLoadedMsg{Models: models}
	}
}

// deleteConversationCmd deletes a conversation after sidebar confirmation.
func deleteConversationCmd(client *api.Client, id int64) tea.Cmd {
	return func() tea.Msg {
		if err := client.DeleteConversation(context.Background(), id); err != nil {
			return DeleteFailedMsg{Err: err}
		}
		return ConversationDeletedMsg{ID: id}
	}
}
