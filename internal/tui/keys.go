package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	Search    key.Binding
	Refresh   key.Binding
	Open      key.Binding
	AddPoints key.Binding
	SubPoints key.Binding
	Back      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		NextPage:  key.NewBinding(key.WithKeys("right", "l", "n"), key.WithHelp("→/n", "next page")),
		PrevPage:  key.NewBinding(key.WithKeys("left", "h", "p"), key.WithHelp("←/p", "prev page")),
		NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next screen")),
		PrevTab:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev screen")),
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		AddPoints: key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "add points")),
		SubPoints: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "subtract points")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// helpKeys adapts the key map to the bindings relevant for the current mode
type helpKeys struct {
	bindings []key.Binding
}

func (h helpKeys) ShortHelp() []key.Binding  { return h.bindings }
func (h helpKeys) FullHelp() [][]key.Binding { return [][]key.Binding{h.bindings} }
