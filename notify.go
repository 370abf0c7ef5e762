package crucible

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/slack-go/slack"
)

// ErrUnsupportedOS is returned by LocalNotifier on unsupported platforms.
var ErrUnsupportedOS = errors.New("notify: unsupported OS for local notifications")

// Notifier sends a fire-and-forget summary to an observer. The
// orchestration glue polls the engine's completed-job log and calls Notify
// whenever a RunTests job finishes, Ok or Error — a secondary, optional
// channel alongside the shared test state the front-end reads directly.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// NopNotifier is the default: no-op, for quiet mode or testing.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string) error { return nil }

// cmdRunner abstracts exec.Cmd.Run for testing LocalNotifier.
type cmdRunner interface {
	Run() error
}

type cmdFactory func(ctx context.Context, name string, args ...string) cmdRunner

func defaultCmdFactory(ctx context.Context, name string, args ...string) cmdRunner {
	return exec.CommandContext(ctx, name, args...)
}

// LocalNotifier sends desktop notifications using OS-native commands:
// darwin uses osascript, linux uses notify-send.
type LocalNotifier struct {
	makeCmd cmdFactory
	forceOS string // for testing; empty means use runtime.GOOS
}

func (n *LocalNotifier) os() string {
	if n.forceOS != "" {
		return n.forceOS
	}
	return runtime.GOOS
}

func (n *LocalNotifier) factory() cmdFactory {
	if n.makeCmd != nil {
		return n.makeCmd
	}
	return defaultCmdFactory
}

func (n *LocalNotifier) Notify(ctx context.Context, title, message string) error {
	mk := n.factory()
	switch n.os() {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		return mk(ctx, "osascript", "-e", script).Run()
	case "linux":
		return mk(ctx, "notify-send", title, message).Run()
	default:
		return ErrUnsupportedOS
	}
}

// DiscordNotifier posts to a Discord channel via a bot token.
type DiscordNotifier struct {
	Token     string
	ChannelID string
}

func (n *DiscordNotifier) Notify(ctx context.Context, title, message string) error {
	session, err := discordgo.New("Bot " + n.Token)
	if err != nil {
		return fmt.Errorf("discord: session: %w", err)
	}
	defer session.Close()

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord: open: %w", err)
	}
	_, err = session.ChannelMessageSend(n.ChannelID, title+"\n"+message)
	if err != nil {
		return fmt.Errorf("discord: send: %w", err)
	}
	return nil
}

// SlackNotifier posts to a Slack channel via a bot token.
type SlackNotifier struct {
	Token     string
	ChannelID string
}

func (n *SlackNotifier) Notify(ctx context.Context, title, message string) error {
	api := slack.New(n.Token)
	_, _, err := api.PostMessageContext(ctx, n.ChannelID,
		slack.MsgOptionText(title+"\n"+message, false))
	if err != nil {
		return fmt.Errorf("slack: send: %w", err)
	}
	return nil
}

// TelegramNotifier posts to a Telegram chat via a bot token.
type TelegramNotifier struct {
	Token  string
	ChatID string
}

func (n *TelegramNotifier) Notify(ctx context.Context, title, message string) error {
	bot, err := tgbotapi.NewBotAPI(n.Token)
	if err != nil {
		return fmt.Errorf("telegram: bot: %w", err)
	}
	chatID, err := strconv.ParseInt(n.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: chat id: %w", err)
	}
	msg := tgbotapi.NewMessage(chatID, title+"\n"+message)
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}

// CmdNotifier executes a user-provided shell command for notifications.
// {title} and {message} placeholders are substituted before execution.
type CmdNotifier struct {
	cmdTemplate string
	makeCmd     cmdFactory
}

func NewCmdNotifier(cmdTemplate string) *CmdNotifier {
	return &CmdNotifier{cmdTemplate: cmdTemplate}
}

func (n *CmdNotifier) factory() cmdFactory {
	if n.makeCmd != nil {
		return n.makeCmd
	}
	return defaultCmdFactory
}

func (n *CmdNotifier) Notify(ctx context.Context, title, message string) error {
	expanded := strings.ReplaceAll(n.cmdTemplate, "{title}", title)
	expanded = strings.ReplaceAll(expanded, "{message}", message)
	return n.factory()(ctx, "sh", "-c", expanded).Run()
}

// RunSummary formats the one-line text every Notifier implementation sends
// after a completed RunTests job.
func RunSummary(workspace string, snapshot []CrateSnapshot) string {
	var passed, failed, ignored, notRun int
	for _, crate := range snapshot {
		for _, tests := range [][]TestRecord{crate.UnitTests, crate.DocTests} {
			for _, rec := range tests {
				switch rec.Status {
				case Passed:
					passed++
				case Failed:
					failed++
				case Ignored:
					ignored++
				default:
					notRun++
				}
			}
		}
	}
	return fmt.Sprintf("%s: %d passed, %d failed, %d ignored (%d not run)",
		workspace, passed, failed, ignored, notRun)
}
