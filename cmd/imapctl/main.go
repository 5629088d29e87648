package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	imapclient "github.com/fenilsonani/imapclient"
	"github.com/fenilsonani/imapclient/internal/command"
	"github.com/fenilsonani/imapclient/internal/config"
	"github.com/fenilsonani/imapclient/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logging.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "imapctl",
	Short: "Exercise an IMAP4rev1 session profile from the command line",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		log, err = logging.New(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cfg.Logging.Output,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

// connectedClient dials and authenticates per cfg, returning a Client
// the caller must Logout.
func connectedClient(ctx context.Context) (*imapclient.Client, error) {
	cl := imapclient.New(cfg, log)
	if err := cl.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect failed: %w", err)
	}
	return cl, nil
}

var selectCmd = &cobra.Command{
	Use:   "select <mailbox>",
	Short: "SELECT a mailbox and print its folded state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.CommandTimeout())
		defer cancel()

		cl, err := connectedClient(ctx)
		if err != nil {
			return err
		}
		defer cl.Logout(ctx)

		mbox, err := cl.OpenBox(ctx, args[0], false)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d messages, %d recent, uidvalidity=%d uidnext=%d\n",
			mbox.Name, mbox.Exists, mbox.Recent, mbox.UIDValidity, mbox.UIDNext)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <mailbox> <keyword>",
	Short: "SELECT a mailbox and SEARCH for a bare keyword (e.g. UNSEEN)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.CommandTimeout())
		defer cancel()

		cl, err := connectedClient(ctx)
		if err != nil {
			return err
		}
		defer cl.Logout(ctx)

		if _, err := cl.OpenBox(ctx, args[0], true); err != nil {
			return err
		}
		uids, err := cl.Search(ctx, []command.Criterion{command.Keyword(strings.ToUpper(args[1]))})
		if err != nil {
			return err
		}
		for _, uid := range uids {
			fmt.Println(uid)
		}
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <mailbox> <uid-set>",
	Short: "SELECT a mailbox and FETCH envelopes for a UID set",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.CommandTimeout())
		defer cancel()

		cl, err := connectedClient(ctx)
		if err != nil {
			return err
		}
		defer cl.Logout(ctx)

		if _, err := cl.OpenBox(ctx, args[0], true); err != nil {
			return err
		}
		messages, err := cl.Fetch(ctx, args[1], imapclient.FetchOptions{Envelope: true, Size: true})
		if err != nil {
			return err
		}
		for _, m := range messages {
			subject := ""
			if m.Envelope != nil {
				subject = m.Envelope.Subject
			}
			fmt.Printf("uid=%d size=%d subject=%q\n", m.UID, m.Size, subject)
		}
		return nil
	},
}

var idleCmd = &cobra.Command{
	Use:   "idle <mailbox>",
	Short: "SELECT a mailbox and stream IDLE notifications until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		connectCtx, cancel := context.WithTimeout(context.Background(), cfg.CommandTimeout())
		cl, err := connectedClient(connectCtx)
		cancel()
		if err != nil {
			return err
		}
		defer cl.Logout(context.Background())

		selectCtx, cancel2 := context.WithTimeout(context.Background(), cfg.CommandTimeout())
		_, err = cl.OpenBox(selectCtx, args[0], false)
		cancel2()
		if err != nil {
			return err
		}

		idleCtx, cancel3 := context.WithTimeout(context.Background(), cfg.IdleRefreshInterval())
		defer cancel3()
		ctl, err := cl.Idle(idleCtx)
		if err != nil {
			return err
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		for {
			select {
			case ev, ok := <-ctl.Events():
				if !ok {
					return nil
				}
				printIdleEvent(ev)
				if ev.Kind == imapclient.IdleEnd {
					return nil
				}
			case <-sigCh:
				ctl.Stop()
			}
		}
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <mailbox>",
	Short: "Like idle, but falls back to NOOP polling when IDLE isn't advertised",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		connectCtx, cancel := context.WithTimeout(context.Background(), cfg.CommandTimeout())
		cl, err := connectedClient(connectCtx)
		cancel()
		if err != nil {
			return err
		}
		defer cl.Logout(context.Background())

		selectCtx, cancel2 := context.WithTimeout(context.Background(), cfg.CommandTimeout())
		_, err = cl.OpenBox(selectCtx, args[0], false)
		cancel2()
		if err != nil {
			return err
		}

		ctl, err := cl.Watch(context.Background(), cfg.IdlePollInterval())
		if err != nil {
			return err
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		timeout := time.After(cfg.IdleRefreshInterval())
		for {
			select {
			case ev, ok := <-ctl.Events():
				if !ok {
					return nil
				}
				printIdleEvent(ev)
				if ev.Kind == imapclient.IdleEnd {
					return nil
				}
			case <-sigCh:
				ctl.Stop()
			case <-timeout:
				ctl.Stop()
			}
		}
	},
}

func printIdleEvent(ev imapclient.IdleEvent) {
	switch ev.Kind {
	case imapclient.IdleExists:
		fmt.Printf("EXISTS %d\n", ev.SeqNo)
	case imapclient.IdleExpunge:
		fmt.Printf("EXPUNGE %d\n", ev.SeqNo)
	case imapclient.IdleFetch:
		fmt.Printf("FETCH %d flags=%v\n", ev.SeqNo, ev.Flags)
	case imapclient.IdleRecent:
		fmt.Printf("RECENT %d\n", ev.SeqNo)
	case imapclient.IdleNotification:
		fmt.Printf("NOTIFICATION %s\n", ev.Text)
	case imapclient.IdleError:
		fmt.Printf("ERROR %v\n", ev.Err)
	case imapclient.IdleEnd:
		fmt.Println("END")
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("imapctl v0.1.0")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "imapctl.yaml", "session profile path")
	rootCmd.AddCommand(selectCmd, searchCmd, fetchCmd, idleCmd, watchCmd, versionCmd)
}
