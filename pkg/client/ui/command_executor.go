package ui

import (
	"fmt"

	"github.com/aeolun/yacs/pkg/client/ui/modal"
	tea "github.com/charmbracelet/bubbletea"
)

// execute runs a parsed command. Controller calls happen inside the returned
// tea.Cmd so the update loop never blocks on the network.
func (m Model) execute(cmd Command) (Model, tea.Cmd) {
	ctrl, ctx := m.ctrl, m.ctx

	switch cmd.Kind {
	case CommandSend:
		body := cmd.Text
		return m, run("send", func() error { return ctrl.Send(ctx, body) })

	case CommandJoin:
		id := cmd.ID
		return m, run("join", func() error { return ctrl.SelectChannel(ctx, id) })

	case CommandMore:
		if m.loadingMore {
			return m, nil
		}
		m.loadingMore = true
		return m, run("load more", func() error { return ctrl.LoadMore(ctx) })

	case CommandAttach:
		path := cmd.Text
		m.setStatus("Uploading "+path+"...", false)
		return m, run("upload", func() error { return ctrl.Upload(ctx, path) })

	case CommandDrop:
		name := cmd.Text
		return m, run("drop", func() error { return ctrl.CancelAttachment(ctx, name) })

	case CommandFiles:
		msg, ok := m.findMessage(cmd.ID)
		if !ok {
			m.setStatus(fmt.Sprintf("Message %d is not loaded", cmd.ID), true)
			return m, nil
		}
		if len(msg.Attachments) == 0 {
			m.setStatus(fmt.Sprintf("Message %d has no attachments", cmd.ID), false)
			return m, nil
		}
		return m, func() tea.Msg {
			return filesResolvedMsg{MessageID: msg.ID, Refs: ctrl.ResolveAttachments(ctx, msg)}
		}

	case CommandMute:
		return m, func() tea.Msg {
			ctrl.ToggleMute()
			return nil
		}

	case CommandRefresh:
		return m, run("refresh", func() error { return ctrl.RefreshChannels(ctx) })

	case CommandCreateChannel:
		name := cmd.Text
		return m, run("create channel", func() error { return ctrl.CreateChannel(ctx, name) })

	case CommandRenameChannel:
		id, name := cmd.ID, cmd.Text
		return m, run("rename channel", func() error { return ctrl.RenameChannel(ctx, id, name) })

	case CommandToggleChannelPrivilege:
		id := cmd.ID
		return m, run("toggle channel privilege", func() error { return ctrl.ToggleChannelPrivilege(ctx, id) })

	case CommandDeleteChannel:
		id := cmd.ID
		label := fmt.Sprintf("#%d", id)
		if name := m.channelName(id); name != "" {
			label = fmt.Sprintf("%s (#%d)", name, id)
		}
		m.confirm("Delete channel "+label+"?", "delete channel", func() error { return ctrl.DeleteChannel(ctx, id) })
		return m, nil

	case CommandKick:
		nick := cmd.Text
		m.confirm("Kick "+nick+"?", "kick user", func() error { return ctrl.KickUser(ctx, nick) })
		return m, nil

	case CommandDeleteResource:
		id := cmd.Text
		m.confirm("Delete resource "+id+"?", "delete resource", func() error { return ctrl.DeleteResource(ctx, id) })
		return m, nil

	case CommandDeleteMessage:
		id := cmd.ID
		m.confirm(fmt.Sprintf("Delete message %d?", id), "delete message", func() error { return ctrl.DeleteMessage(ctx, id) })
		return m, nil

	case CommandHelp:
		m.modalStack.Push(modal.NewHelpModal(helpEntries()))
		return m, nil

	case CommandQuit:
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) confirm(prompt, action string, fn func() error) {
	m.modalStack.Push(modal.NewConfirmModal(prompt, func() tea.Cmd {
		return run(action, fn)
	}))
}

func run(action string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionResultMsg{Action: action, Err: fn()}
	}
}
