package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mlehmann/docshelf/internal/app"
	"github.com/mlehmann/docshelf/internal/tree"
	"github.com/mlehmann/docshelf/internal/uploads"
)

// repl is a minimal stand-in for the real presentation layer: it
// consumes the controller's state and callbacks and turns lines on
// stdin into intents.
type repl struct {
	in  io.Reader
	out io.Writer

	mu    sync.Mutex
	dirty bool
}

func newREPL(in io.Reader, out io.Writer) *repl {
	return &repl{in: in, out: out}
}

// requestRender marks the view stale; async completions (uploads,
// hydration) land here.
func (r *repl) requestRender() {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()
}

func (r *repl) run(ctx context.Context, ctrl *app.Controller) error {
	fmt.Fprintln(r.out, `docshelf — type "help" for commands`)
	r.render(ctrl)

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			r.render(ctrl)
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		switch cmd {
		case "quit", "exit":
			return nil
		case "help":
			r.printHelp()
			continue
		case "login":
			ctrl.Login(ctx, rest)
		case "logout":
			ctrl.Logout()
		case "select":
			ctrl.Select(rest)
		case "toggle":
			ctrl.ToggleFolder(rest)
		case "search":
			ctrl.SetSearch(rest)
		case "clear":
			ctrl.SetSearch("")
		case "mkdir":
			ctrl.AddFolder(rest)
		case "mkroot":
			ctrl.AddRootFolder(rest)
		case "touch":
			ctrl.AddFile(rest)
		case "rename":
			ctrl.Rename(rest)
		case "note":
			ctrl.SetNote(rest)
		case "icon":
			ctrl.SetIcon(ctrl.Selected().ID, rest)
		case "rm":
			ctrl.Delete()
		case "collapse":
			ctrl.CollapseAll()
		case "expand":
			ctrl.ExpandAll()
		case "put":
			r.put(ctrl, strings.Fields(rest))
		case "drop":
			ctrl.RemoveUpload(rest)
		case "sort":
			ctrl.SetSortMode(uploads.SortMode(rest))
		case "theme":
			ctrl.SetTheme(rest)
		case "reset":
			ctrl.ResetDemo()
		default:
			fmt.Fprintf(r.out, "unknown command %q\n", cmd)
			continue
		}
		r.render(ctrl)
	}
}

func (r *repl) put(ctrl *app.Controller, paths []string) {
	var files []uploads.RawFile
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(r.out, "read %s: %v\n", path, err)
			continue
		}
		files = append(files, uploads.RawFile{
			Name: filepath.Base(path),
			Data: data,
		})
	}
	ctrl.Upload(files)
}

func (r *repl) render(ctrl *app.Controller) {
	r.mu.Lock()
	r.dirty = false
	r.mu.Unlock()

	selected := ctrl.Selected()
	r.printNode(ctrl.VisibleTree(), selected.ID, 0)

	var names []string
	for _, n := range ctrl.Breadcrumbs() {
		names = append(names, n.Name)
	}
	fmt.Fprintf(r.out, "— %s\n", strings.Join(names, " › "))
	if selected.Note != "" {
		fmt.Fprintf(r.out, "note: %s\n", selected.Note)
	}
	if selected.Kind == tree.KindFile {
		for _, e := range ctrl.Uploads() {
			marker := " "
			if e.ID == ctrl.SelectedUploadID() {
				marker = "*"
			}
			fmt.Fprintf(r.out, " %s 📎 %s  %s  [%s] %s\n", marker, e.Name, uploads.FormatSize(e.Size), e.Status, e.ID)
		}
	}
}

func (r *repl) printNode(n *tree.Node, selectedID string, depth int) {
	marker := " "
	if n.ID == selectedID {
		marker = ">"
	}
	fmt.Fprintf(r.out, "%s%s%s %s  (%s)\n", marker, strings.Repeat("  ", depth), n.Icon, n.Name, n.ID)
	if n.Kind == tree.KindFolder && n.Expanded {
		for _, child := range n.Children {
			r.printNode(child, selectedID, depth+1)
		}
	}
}

func (r *repl) printHelp() {
	fmt.Fprintln(r.out, `commands:
  select <id>      toggle <id>      search <text>    clear
  mkdir <name>     mkroot <name>    touch <name>     rename <name>
  note <text>      icon <glyph>     rm               collapse | expand
  put <path...>    drop <entryID>   sort <createdDesc|createdAsc|nameAsc|nameDesc>
  login <user>     logout           theme <light|dark>
  reset            help             quit`)
}
