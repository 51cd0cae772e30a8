package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the player.
type keyMap struct {
	toggle key.Binding
	end    key.Binding
	next   key.Binding
	prev   key.Binding
	enter  key.Binding
	back   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		toggle: key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		end:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "end")),
		next:   key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "next video")),
		prev:   key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p/←", "previous video")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "watch")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to feed")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.next, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.toggle, k.end},
		{k.next, k.prev},
		{k.enter, k.back, k.quit},
	}
}
