// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kurisu-assistant/kurisu-tui/internal/api"
	"github.com/kurisu-assistant/kurisu-tui/internal/model"
	"github.com/kurisu-assistant/kurisu-tui/internal/tts"
)

// =============================================================================
// CHAT COMMANDS - async work feeding tea.Msg values back to the view
// =============================================================================

// Attachment is a local image queued for the next send.
type Attachment struct {
	Path string
	Data []byte
}

// LoadAttachment reads an image file from disk for the send queue.
func LoadAttachment(path string) (Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, err
	}
	return Attachment{Path: path, Data: data}, nil
}

// sendCmd runs the send pipeline: upload attachments one at a time in
// listed order, then open the fragment stream. Fragments land in the
// mailbox from a goroutine that outlives the command; the typing tick
// drains them. Upload failure aborts before the stream opens.
func sendCmd(client *api.Client, mailbox *Mailbox, text, modelName string, conversationID, chunkID int64, attachments []Attachment) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		imageIDs := make([]string, 0, len(attachments))
		for _, att := range attachments {
			id, err := client.UploadImage(ctx, filepath.Base(att.Path), att.Data)
			if err != nil {
				return SendFailedMsg{Err: err}
			}
			imageIDs = append(imageIDs, id)
		}

		req := api.ChatRequest{
			Text:           text,
			ModelName:      modelName,
			ConversationID: conversationID,
			ChunkID:        chunkID,
			Images:         imageIDs,
		}

		fragments := client.ChatStreamChan(ctx, req)
		go func() {
			for fragment := range fragments {
				mailbox.Put(fragment)
			}
			mailbox.Close()
		}()

		return StreamStartedMsg{}
	}
}

// openConversationCmd fetches the newest page of a conversation picked
// in the sidebar.
func openConversationCmd(client *api.Client, summary model.Summary) tea.Cmd {
	return func() tea.Msg {
		page, err := client.GetConversationPage(context.Background(), summary.ID, client.PageSize(), 0)
		if err != nil {
			return OpenFailedMsg{Err: err}
		}
		return ConversationOpenedMsg{Summary: summary, Page: page}
	}
}

// loadOlderCmd fetches the next older page at the cursor handed out by
// the conversation store.
func loadOlderCmd(client *api.Client, id int64, limit, offset int) tea.Cmd {
	return func() tea.Msg {
		page, err := client.GetConversationPage(context.Background(), id, limit, offset)
		if err != nil {
			return PageFailedMsg{Err: err}
		}
		return PageLoadedMsg{Page: page}
	}
}

// speakCmd synthesizes the text and hands the audio to the external
// player. Audio bytes pass through untouched.
func speakCmd(client *api.Client, player *tts.Player, text, voice, backend string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		audio, err := client.Synthesize(ctx, api.TTSRequest{Text: text, Voice: voice, Backend: backend})
		if err != nil {
			return SpeakFailedMsg{Err: err}
		}
		if err := player.Play(ctx, audio); err != nil {
			return SpeakFailedMsg{Err: err}
		}
		return nil
	}
}

// tickCmd schedules the next presenter tick.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// holdCmd keeps the finished stream on screen briefly before the
// complete indicator replaces the streaming state.
func holdCmd() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(time.Time) tea.Msg {
		return StreamFinishedMsg{}
	})
}

// completeClearCmd clears the complete indicator a few seconds later.
func completeClearCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return CompleteClearMsg{}
	})
}
