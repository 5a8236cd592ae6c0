package app

import (
	"fmt"

	"github.com/bawanisandunika/wattpad-downloader/pkg/app/styles"
	"github.com/bawanisandunika/wattpad-downloader/pkg/services"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// DownloadModel renders download progress from the downloader's channel.
// The program quits when the channel is closed.
type DownloadModel struct {
	bar      progress.Model
	updates  <-chan services.Progress
	title    string
	current  string
	done     int
	total    int
	finished bool
}

func NewDownloadModel(updates <-chan services.Progress) DownloadModel {
	return DownloadModel{
		bar:     progress.New(progress.WithDefaultGradient()),
		updates: updates,
	}
}

type progressMsg services.Progress

type finishedMsg struct{}

func waitForUpdate(updates <-chan services.Progress) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return finishedMsg{}
		}
		return progressMsg(update)
	}
}

func (m DownloadModel) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

func (m DownloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.title = msg.StoryTitle
		m.current = msg.ChapterTitle
		m.done = msg.Done
		m.total = msg.Total
		return m, waitForUpdate(m.updates)
	case finishedMsg:
		m.finished = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 8
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m DownloadModel) View() string {
	if m.finished {
		return styles.DoneStyle.Render("Download complete") + "\n"
	}
	if m.total == 0 {
		return styles.MutedStyle.Render("Fetching story metadata...") + "\n"
	}

	header := styles.TitleStyle.Render(m.title)
	bar := m.bar.ViewAs(float64(m.done) / float64(m.total))
	count := fmt.Sprintf("%d/%d chapters", m.done, m.total)
	detail := styles.MutedStyle.Render(m.current)
	return fmt.Sprintf("%s\n%s %s\n%s\n", header, bar, count, detail)
}

// RunDownloadUI blocks until the updates channel closes.
func RunDownloadUI(updates <-chan services.Progress) error {
	_, err := tea.NewProgram(NewDownloadModel(updates)).Run()
	return err
}
