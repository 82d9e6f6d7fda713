package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kir-gadjello/ikoi/chat"
	"github.com/kir-gadjello/ikoi/kv"
)

func is_interactive(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// openStores wires the persistence layer and loads both persisted stores.
func openStores(cfg *Config) (kv.Store, *chat.Store, *chat.Ledger, error) {
	kvs, err := kv.Open(cfg.Storage, cfg.storagePath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	store := chat.NewStore(kvs)
	if err := store.Load(); err != nil {
		kvs.Close()
		return nil, nil, nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	ledger := chat.NewLedger(kvs)
	ledger.Load()

	return kvs, store, ledger, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	if !is_interactive(os.Stdout.Fd()) {
		return fmt.Errorf("ikoi chat needs an interactive terminal")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kvs, store, ledger, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer kvs.Close()

	client := NewAssistantClient(cfg.APIURL, cfg.APIKey)

	p := tea.NewProgram(
		initialTuiState(cfg, kvs, store, ledger, client),
		tea.WithAltScreen(),
	)
	_, err = p.Run()
	return err
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kvs, store, _, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer kvs.Close()

	results := chat.Search(store.Snapshot(), args[0])
	if len(results) == 0 {
		fmt.Println("No matches found.")
		return nil
	}

	snap := store.Snapshot()
	for _, r := range results {
		msg := snap[r.MessageIndex]
		who := "you"
		if msg.Author == chat.AuthorAssistant {
			who = "ikoi"
		}
		excerpt := []rune(r.Excerpt)
		preview := string(excerpt[:r.MatchOffset]) +
			"\033[1;33m" + string(excerpt[r.MatchOffset:r.MatchOffset+r.MatchLen]) + "\033[0m" +
			string(excerpt[r.MatchOffset+r.MatchLen:])
		fmt.Printf("\033[1;34m#%d\033[0m %s [%s]: %s\n", r.MessageIndex, msg.CreatedAt.Format("2006-01-02 15:04"), who, preview)
	}
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kvs, store, ledger, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer kvs.Close()

	if err := chat.Reset(store, ledger); err != nil {
		return err
	}
	fmt.Println("Conversation cleared.")
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kvs, store, ledger, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer kvs.Close()

	width := 80
	if is_interactive(os.Stdout.Fd()) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	for i, msg := range store.Snapshot() {
		label := "IKOI"
		if msg.Author == chat.AuthorUser {
			label = "YOU"
		}
		fmt.Printf("### %s · %s\n\n", label, msg.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Println(wrapText(msg.Text, width))
		if msg.Voice != nil {
			fmt.Printf("\n[voice message, %s]\n", formatDuration(msg.Voice.DurationSeconds))
		}
		for _, att := range msg.Attachments {
			fmt.Printf("\n[attachment: %s, %s]\n", att.Name, formatFileSize(att.SizeBytes))
		}
		if rs := ledger.For(i); len(rs) > 0 {
			fmt.Print("\n")
			for _, r := range rs {
				fmt.Printf("%s×%d ", r.Emoji, r.Count)
			}
			fmt.Print("\n")
		}
		fmt.Print("\n")
	}
	return nil
}

func runDoctor(cmd *cobra.Command, args []string) {
	fmt.Println("ikoi doctor")
	fmt.Println("===========")

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("❌ Configuration : %v\n", err)
		return
	}
	fmt.Printf("✅ Configuration : OK (data dir %s)\n", cfg.DataDir)

	if kvs, store, _, err := openStores(cfg); err != nil {
		fmt.Printf("❌ Storage       : %v\n", err)
	} else {
		fmt.Printf("✅ Storage       : %s backend, %d message(s)\n", cfg.Storage, store.Len())
		kvs.Close()
	}

	if _, err := exec.LookPath(cfg.Recorder.Command); err == nil {
		fmt.Printf("✅ Recorder      : %s found\n", cfg.Recorder.Command)
	} else {
		fmt.Printf("⚠️  Recorder      : %s not found (voice messages unavailable)\n", cfg.Recorder.Command)
	}

	if cfg.Transcriber.Endpoint != "" {
		fmt.Printf("✅ Transcriber   : %s\n", cfg.Transcriber.Endpoint)
	} else {
		fmt.Println("⚠️  Transcriber   : not configured (canned transcripts)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := NewAssistantClient(cfg.APIURL, cfg.APIKey).Ping(ctx); err != nil {
		fmt.Printf("⚠️  Assistant     : %s unreachable\n", cfg.APIURL)
	} else {
		fmt.Printf("✅ Assistant     : %s\n", cfg.APIURL)
	}
}

// wrapText wraps words at width, leaving existing newlines alone.
func wrapText(text string, width int) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			if len(cur)+1+len(w) > width {
				out = append(out, cur)
				cur = w
				continue
			}
			cur += " " + w
		}
		out = append(out, cur)
	}
	return strings.Join(out, "\n")
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "ikoi",
		Short: "Terminal client for the ikoi conversational assistant",
		RunE:  runChat,
	}

	searchCmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the conversation log",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
	rootCmd.AddCommand(searchCmd)

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the conversation log and reactions",
		RunE:  runReset,
	}
	rootCmd.AddCommand(resetCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Print the conversation log as markdown",
		RunE:  runExport,
	}
	rootCmd.AddCommand(exportCmd)

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, storage and capture dependencies",
		Run:   runDoctor,
	}
	rootCmd.AddCommand(doctorCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
