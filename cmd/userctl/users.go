package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	core "github.com/goliatone/go-userboard/components/userboard"
	"github.com/goliatone/go-userboard/pkg/usersapi"
)

type listCmd struct {
	Search string `short:"s" help:"Case-insensitive name filter."`
	Min    string `help:"Minimum age (inclusive)."`
	Max    string `help:"Maximum age (inclusive)."`
	Sort   string `help:"Sort column (name or age)."`
	Desc   bool   `help:"Sort descending. Requires --sort."`
	Format string `short:"o" enum:"table,json,yaml" default:"table" help:"Output format."`
}

// Validate runs before the backend is contacted.
func (cmd *listCmd) Validate() error {
	if cmd.Desc && strings.TrimSpace(cmd.Sort) == "" {
		return errors.New("userctl: --desc requires --sort")
	}
	return nil
}

func (cmd *listCmd) Run(ctx context.Context, root *cli) error {
	s, err := root.open()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.loadUsers(ctx); err != nil {
		return err
	}
	store := s.app.Store
	if err := store.ApplyFilter(ctx, cmd.Search, cmd.Min, cmd.Max); err != nil {
		return err
	}
	if cmd.Sort != "" {
		key, ok := core.ParseSortKey(cmd.Sort)
		if !ok {
			return fmt.Errorf("userctl: unknown sort column %q", cmd.Sort)
		}
		store.ToggleSort(ctx, key)
		if cmd.Desc {
			store.ToggleSort(ctx, key)
		}
	}
	view := store.View()
	switch cmd.Format {
	case "json":
		return writeJSON(os.Stdout, view.Users)
	case "yaml":
		return writeYAML(os.Stdout, view.Users)
	}
	if err := writeUsers(os.Stdout, view.Users); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Showing %d of %d users\n", view.Shown, view.Total)
	return nil
}

type statsCmd struct {
	All    bool   `help:"Show every group instead of the top five."`
	Format string `short:"o" enum:"table,json,yaml" default:"table" help:"Output format."`
}

func (cmd *statsCmd) Run(ctx context.Context, root *cli) error {
	s, err := root.open()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.loadUsers(ctx); err != nil {
		return err
	}
	ranking := core.RankStats(s.app.Store.Snapshot().Stats, cmd.All)
	switch cmd.Format {
	case "json":
		return writeJSON(os.Stdout, ranking)
	case "yaml":
		return writeYAML(os.Stdout, ranking)
	}
	return writeRanking(os.Stdout, ranking)
}

type createCmd struct {
	Name string `arg:"" help:"User name."`
	Age  string `arg:"" help:"Age in whole years."`
}

func (cmd *createCmd) Run(ctx context.Context, root *cli) error {
	s, err := root.open()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.loadUsers(ctx); err != nil {
		return err
	}
	err = s.app.Store.Create(ctx, core.CreateForm{Name: cmd.Name, Age: cmd.Age})
	return report(s.app.Store, err, fmt.Sprintf("Created %s", strings.TrimSpace(cmd.Name)))
}

type deleteCmd struct {
	Name string `arg:"" help:"User name."`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (cmd *deleteCmd) Run(ctx context.Context, root *cli) error {
	s, err := root.open()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.loadUsers(ctx); err != nil {
		return err
	}
	var confirm core.Confirmer = promptConfirmer(os.Stdin, os.Stderr)
	if cmd.Yes {
		confirm = core.ConfirmFunc(func(context.Context, string) bool { return true })
	}
	err = s.app.Store.Delete(ctx, cmd.Name, confirm)
	if errors.Is(err, core.ErrDeleteNotConfirmed) {
		fmt.Fprintln(os.Stderr, "Delete cancelled")
		return nil
	}
	return report(s.app.Store, err, fmt.Sprintf("Deleted %s", cmd.Name))
}

type uploadCmd struct {
	File   string `arg:"" type:"existingfile" help:"CSV file with name and age columns."`
	DryRun bool   `name:"dry-run" help:"Show which rows would be added without uploading."`
}

func (cmd *uploadCmd) Run(ctx context.Context, root *cli) error {
	s, err := root.open()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.loadUsers(ctx); err != nil {
		return err
	}
	file, err := os.Open(cmd.File)
	if err != nil {
		return fmt.Errorf("userctl: open %s: %w", cmd.File, err)
	}
	defer file.Close()

	if cmd.DryRun {
		preview, err := usersapi.PreviewCSV(file, s.app.Store.Snapshot().Users)
		if err != nil {
			return err
		}
		return writePreview(os.Stdout, preview)
	}
	if _, err := s.app.Store.Upload(ctx, core.CSVUpload{Filename: filepath.Base(cmd.File), Content: file}); err != nil {
		return report(s.app.Store, err, "")
	}
	return report(s.app.Store, nil, "Upload "+s.app.Store.View().Upload.Message())
}

// report prints the store notice for a failed write, or success otherwise.
func report(store *core.Store, err error, success string) error {
	notice := store.TakeNotice()
	if err != nil {
		if !notice.IsZero() {
			return errors.New(notice.Message)
		}
		return err
	}
	if !notice.IsZero() {
		fmt.Fprintln(os.Stdout, notice.Message)
		return nil
	}
	if success != "" {
		fmt.Fprintln(os.Stdout, success)
	}
	return nil
}

func promptConfirmer(in io.Reader, out io.Writer) core.Confirmer {
	reader := bufio.NewReader(in)
	return core.ConfirmFunc(func(_ context.Context, prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		answer, _ := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	})
}

func writeUsers(w io.Writer, users []core.User) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tAGE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%d\n", u.Name, u.Age)
	}
	return tw.Flush()
}

func writeRanking(w io.Writer, view core.StatsView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tAVERAGE AGE\t")
	for _, entry := range view.Entries {
		bar := strings.Repeat("#", int(entry.Width/5))
		fmt.Fprintf(tw, "%s\t%.1f\t%s\n", entry.Group, entry.Avg, bar)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if view.CanExpand {
		fmt.Fprintf(w, "%d of %d groups (use --all to see every group)\n", len(view.Entries), view.Total)
	}
	return nil
}

func writePreview(w io.Writer, preview usersapi.CSVPreview) error {
	fmt.Fprintf(w, "Would add %d users\n", len(preview.Added))
	if err := writeUsers(w, preview.Added); err != nil {
		return err
	}
	for _, skip := range preview.Skipped {
		name := skip.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "skip line %d (%s): %s\n", skip.Line, name, skip.Reason)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}
