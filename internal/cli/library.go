// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taibuivan/lector/internal/app"
	"github.com/taibuivan/lector/internal/core/library"
)

// NewLibraryCommand lists the merged library.
func NewLibraryCommand(rootOpts *RootOptions) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:           "library",
		Short:         "List the library",
		Long:          "List every book in the remote store merged with the books downloaded on this device.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, rootOpts, func(ctx context.Context, application *app.App, view library.View) error {
				entries := library.Filter(view.Entries, query)
				if entries == nil {
					entries = []library.Entry{}
				}
				return rootOpts.output(cmd.OutOrStdout(), entries, func(writer io.Writer) error {
					return writeEntries(writer, entries)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by title or author")
	return cmd
}

// NewUploadCommand adds an EPUB file to the library.
func NewUploadCommand(rootOpts *RootOptions) *cobra.Command {
	var hints library.UploadHints

	cmd := &cobra.Command{
		Use:           "upload <file.epub>",
		Short:         "Upload an EPUB file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			hints.FileName = filepath.Base(args[0])

			return withLibrary(cmd, rootOpts, func(ctx context.Context, application *app.App, _ library.View) error {
				book, err := application.Library.Upload(ctx, data, hints)
				if err != nil {
					return err
				}
				return rootOpts.output(cmd.OutOrStdout(), book, func(writer io.Writer) error {
					_, err := fmt.Fprintf(writer, "uploaded %s %q by %s (%d bytes)\n", book.ID, book.Title, book.Author, len(data))
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&hints.Title, "title", "", "title, overriding the EPUB metadata")
	cmd.Flags().StringVar(&hints.Author, "author", "", "author, overriding the EPUB metadata")
	return cmd
}

// NewDownloadCommand reconstructs a book and writes it to a file.
func NewDownloadCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "download <book-id> <out.epub>",
		Short:         "Download a book to this device and copy it to a file",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, rootOpts, func(ctx context.Context, application *app.App, _ library.View) error {
				entry, err := application.Library.Download(ctx, args[0])
				if err != nil {
					return err
				}
				if err := os.WriteFile(args[1], entry.Data, 0o644); err != nil {
					return err
				}
				return rootOpts.output(cmd.OutOrStdout(), entry.Metadata, func(writer io.Writer) error {
					_, err := fmt.Fprintf(writer, "wrote %q to %s (%d bytes)\n", entry.Title, args[1], len(entry.Data))
					return err
				})
			})
		},
	}
	return cmd
}

// NewDeleteCommand removes a book everywhere.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "delete <book-id>",
		Short:         "Delete a book from this device and the remote store",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, rootOpts, func(ctx context.Context, application *app.App, _ library.View) error {
				if err := application.Library.Delete(ctx, args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return err
			})
		},
	}
	return cmd
}

/*
withLibrary wires the application, waits for the first remote snapshot and
runs fn. Without a reachable remote store fn receives the local view. Pending
positions are flushed before returning.
*/
func withLibrary(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, application *app.App, view library.View) error) error {
	ctx, cancel := opts.context(cmd)
	defer cancel()

	application, err := opts.openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer application.Close(context.WithoutCancel(ctx))

	view, err := synced(ctx, application.Library, application.Logger)
	if err != nil {
		return err
	}
	return fn(ctx, application, view)
}

// synced starts the coordinator and blocks until the remote snapshot was merged
// or the remote store turned out to be unreachable.
func synced(ctx context.Context, coordinator *library.Coordinator, logger *slog.Logger) (library.View, error) {
	updates, stop := coordinator.Watch()
	defer stop()

	if err := coordinator.Start(ctx); err != nil {
		logger.Warn("library_offline", slog.Any("error", err))
		return coordinator.View(), nil
	}
	view := coordinator.View()
	for view.Syncing {
		select {
		case <-ctx.Done():
			return library.View{}, fmt.Errorf("waiting for the library: %w", ctx.Err())
		case next, ok := <-updates:
			if !ok {
				return library.View{}, fmt.Errorf("library closed before syncing")
			}
			view = next
		}
	}
	if view.Err != "" {
		logger.Warn("library_offline", slog.String("error", view.Err))
	}
	return view, nil
}

// writeEntries renders the library as an aligned table.
func writeEntries(writer io.Writer, entries []library.Entry) error {
	table := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "ID\tTITLE\tAUTHOR\tDOWNLOADED\tPROGRESS")
	for _, entry := range entries {
		progress := fmt.Sprintf("%.0f%%", entry.Progress*100)
		if entry.IsFinished {
			progress = "finished"
		}
		fmt.Fprintf(table, "%s\t%s\t%s\t%t\t%s\n", entry.ID, entry.Title, entry.Author, entry.IsDownloaded, progress)
	}
	return table.Flush()
}
