package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TigerGRBL/gcodeutils/pkg/errors"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// gcodeExtensions are the file extensions offered by the picker.
var gcodeExtensions = map[string]bool{
	".gcode": true,
	".gco":   true,
	".g":     true,
}

// pickGcodeFile lists the G-code files in dir and lets the user pick one
// interactively. It is used when a filter command is run without an
// input argument.
func pickGcodeFile(dir string) (string, error) {
	files, err := listGcodeFiles(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", errors.New(errors.ErrCodeFileNotFound, "no G-code files in %s (pass a file argument)", dir)
	}

	model := newFileListModel(files)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(fileListModel)
	if !ok || m.selected == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "no file selected")
	}
	return m.selected, nil
}

// listGcodeFiles returns the G-code files directly under dir, sorted by
// modification time, newest first.
func listGcodeFiles(dir string) ([]fileEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []fileEntry
	for _, e := range entries {
		if e.IsDir() || !gcodeExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileEntry{
			path: filepath.Join(dir, e.Name()),
			name: e.Name(),
			size: info.Size(),
			mod:  info.ModTime().Unix(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod > files[j].mod })
	return files, nil
}

type fileEntry struct {
	path string
	name string
	size int64
	mod  int64
}

// fileListModel is the bubbletea model for interactive file selection.
type fileListModel struct {
	files    []fileEntry
	cursor   int
	selected string
	height   int
	offset   int
}

func newFileListModel(files []fileEntry) fileListModel {
	return fileListModel{files: files, height: 15}
}

func (m fileListModel) Init() tea.Cmd {
	return nil
}

func (m fileListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.files)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case "enter":
			m.selected = m.files[m.cursor].path
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m fileListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select G-code File"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.files) {
		end = len(m.files)
	}

	for i := m.offset; i < end; i++ {
		f := m.files[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		line := fmt.Sprintf("%s%-40s  %s", cursor, f.name, listDimStyle.Render(formatSize(f.size)))
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.files))))

	return b.String()
}

// formatSize renders a byte count in a compact human form.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
