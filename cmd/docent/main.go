// Command docent is a terminal console for a document knowledge-base server:
// upload documents, publish them through the processing pipeline with live
// progress, review conflicts, and chat against the published knowledge.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/docentlabs/docent/internal/api"
	"github.com/docentlabs/docent/internal/cache"
	"github.com/docentlabs/docent/internal/config"
	"github.com/docentlabs/docent/internal/history"
	"github.com/docentlabs/docent/internal/logging"
	"github.com/docentlabs/docent/internal/publish"
	"github.com/docentlabs/docent/internal/ui"
)

func main() {
	if err := logging.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()

	cfg, err := config.Load()
	if err != nil {
		fatal("Failed to load config: %v", err)
	}

	logging.Info("docent starting", "server", cfg.Server.BaseURL)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fatal("Failed to get home directory: %v", err)
	}
	dataDir := filepath.Join(homeDir, ".docent")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		fatal("Failed to create data directory: %v", err)
	}

	store, err := history.Open(filepath.Join(dataDir, "docent.db"))
	if err != nil {
		fatal("Failed to open history database: %v", err)
	}
	defer store.Close()

	client := api.New(cfg.Server.BaseURL, time.Duration(cfg.Server.RequestTimeoutSeconds)*time.Second)
	views := cache.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The program is created after the controller, so push callbacks go
	// through this indirection. Send is safe from any goroutine.
	var program *tea.Program
	notify := func(msg any) {
		if program != nil {
			program.Send(msg)
		}
	}

	controller := publish.NewController(client, views, store, notify, publish.Delays{})
	defer controller.Close()

	cmds := ui.Commands{
		LoadDocuments: func() tea.Cmd {
			return func() tea.Msg {
				docs, err := client.ListDocuments(ctx)
				if err == nil {
					views.MarkFresh(cache.Documents)
				}
				return ui.DocumentsLoaded{Documents: docs, Err: err}
			}
		},
		LoadConflicts: func() tea.Cmd {
			return func() tea.Msg {
				conflicts, err := client.ListConflicts(ctx)
				if err == nil {
					views.MarkFresh(cache.Conflicts)
				}
				return ui.ConflictsLoaded{Conflicts: conflicts, Err: err}
			}
		},
		LoadOverview: func() tea.Cmd {
			return func() tea.Msg {
				var docs []api.Document
				var conflicts []api.Conflict

				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					var err error
					docs, err = client.ListDocuments(gctx)
					return err
				})
				g.Go(func() error {
					var err error
					conflicts, err = client.ListConflicts(gctx)
					return err
				})
				if err := g.Wait(); err != nil {
					return ui.OverviewLoaded{Err: err}
				}
				views.MarkFresh(cache.Documents)
				views.MarkFresh(cache.Conflicts)
				return ui.OverviewLoaded{Documents: docs, Conflicts: conflicts}
			}
		},
		UploadDocument: func(path, title string) tea.Cmd {
			return func() tea.Msg {
				doc, err := client.UploadDocument(ctx, path, title)
				if err == nil {
					views.Invalidate(cache.Documents)
				}
				return ui.DocumentUploaded{Document: doc, Err: err}
			}
		},
		BackgroundPub: func(documentID string, docling bool) tea.Cmd {
			return func() tea.Msg {
				result, err := client.PublishDocumentAsync(ctx, documentID, docling)
				if err != nil {
					return ui.PublishVerified{ID: documentID, Err: err}
				}
				status, err := publish.VerifyAsyncResult(ctx, client, documentID, result.Processing,
					publish.DefaultPollAttempts, publish.DefaultPollInterval)
				if errors.Is(err, publish.ErrPollingTimeout) {
					return ui.PublishVerified{ID: documentID}
				}
				if err != nil {
					return ui.PublishVerified{ID: documentID, Err: err}
				}
				views.Invalidate(cache.Documents)
				if status.TotalConflicts > 0 {
					views.Invalidate(cache.Conflicts)
				}
				return ui.PublishVerified{ID: documentID, Status: status.Document.Status}
			}
		},
		DeleteDocument: func(documentID string) tea.Cmd {
			return func() tea.Msg {
				err := client.DeleteDocument(ctx, documentID)
				if err == nil {
					// Deleting a document also removes its open conflicts.
					views.Invalidate(cache.Documents)
					views.Invalidate(cache.Conflicts)
				}
				return ui.DocumentDeleted{ID: documentID, Err: err}
			}
		},
		ResolveConflict: func(conflictID, action, note string) tea.Cmd {
			return func() tea.Msg {
				err := client.ResolveConflict(ctx, conflictID, action, note)
				if err == nil {
					// Resolving can flip the document to published.
					views.Invalidate(cache.Conflicts)
					views.Invalidate(cache.Documents)
				}
				return ui.ConflictResolved{ID: conflictID, Err: err}
			}
		},
		ResolveAll: func() tea.Cmd {
			return func() tea.Msg {
				err := client.ResolveAllConflicts(ctx, api.ResolveSupersede, "")
				if err == nil {
					views.Invalidate(cache.Conflicts)
					views.Invalidate(cache.Documents)
				}
				return ui.AllConflictsResolved{Err: err}
			}
		},
		LoadSessions: func() tea.Cmd {
			return func() tea.Msg {
				sessions, err := client.ListChatSessions(ctx)
				if err == nil {
					views.MarkFresh(cache.ChatSessions)
				}
				return ui.ChatSessionsLoaded{Sessions: sessions, Err: err}
			}
		},
		CreateSession: func() tea.Cmd {
			return func() tea.Msg {
				id, err := client.CreateChatSession(ctx, "")
				return ui.ChatSessionCreated{SessionID: id, Err: err}
			}
		},
		SendMessage: func(sessionID, content string) tea.Cmd {
			return func() tea.Msg {
				exchange, err := client.SendMessage(ctx, sessionID, content, cfg.Chat.Provider)
				if err == nil {
					logChat(store, sessionID, content, exchange)
					views.Invalidate(cache.MessagesKey(sessionID))
				}
				return ui.ChatExchangeReceived{SessionID: sessionID, Exchange: exchange, Err: err}
			}
		},
		LoadChatMessages: func(sessionID string) tea.Cmd {
			return func() tea.Msg {
				messages, err := client.GetChatMessages(ctx, sessionID)
				if err == nil {
					views.MarkFresh(cache.MessagesKey(sessionID))
				}
				return ui.ChatMessagesLoaded{SessionID: sessionID, Messages: messages, Err: err}
			}
		},
		LoadHistory: func() tea.Cmd {
			return func() tea.Msg {
				records, err := store.RecentPublishes(cfg.UI.HistoryLimit)
				return ui.HistoryLoaded{Records: records, Err: err}
			}
		},
	}

	app := ui.NewApp(cmds, controller, cfg.Server.UseDocling, cfg.UI.ShowDetail)
	program = tea.NewProgram(app, tea.WithAltScreen())

	// Invalidation events from the publish controller become refetch
	// messages on the UI loop.
	views.Subscribe(func(key string) {
		program.Send(ui.ViewStale{Key: key})
	})

	if _, err := program.Run(); err != nil {
		logging.Error("program error", "err", err)
		fatal("Error: %v", err)
	}

	logging.Info("docent exiting")
}

// logChat appends the user question and the assistant answer to the local
// transcript. Failures are logged, never surfaced.
func logChat(store *history.Store, sessionID, question string, exchange api.ChatExchange) {
	now := time.Now()
	entries := []history.ChatEntry{
		{SessionID: sessionID, Role: "user", Content: question, CreatedAt: now},
	}
	if n := len(exchange.Messages); n > 0 && exchange.Messages[n-1].Role == "assistant" {
		entries = append(entries, history.ChatEntry{
			SessionID: sessionID,
			Role:      "assistant",
			Content:   exchange.Messages[n-1].Content,
			CreatedAt: now,
		})
	}
	if err := store.LogChat(entries); err != nil {
		logging.Warn("log chat", "session", sessionID, "err", err)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
