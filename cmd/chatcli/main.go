// chatcli is a terminal client for the blackbox API.
//
//	chatcli -server http://localhost:8080 -user alice -pass secret contacts
//	chatcli ... send -peer 3f2a9c0d11e4b7a8 "hello"
//	chatcli ... tail -peer 3f2a9c0d11e4b7a8
//
// tail keeps the conversation open and sends every stdin line as a text message.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/blackbox-chat/blackbox-backend/pkg/chatclient"
)

func main() {
	server := flag.String("server", envOr("BLACKBOX_SERVER", "http://localhost:8080"), "API base URL")
	user := flag.String("user", os.Getenv("BLACKBOX_USER"), "username")
	pass := flag.String("pass", os.Getenv("BLACKBOX_PASS"), "password")
	peer := flag.String("peer", "", "peer public id (send, tail)")
	poll := flag.Duration("poll", chatclient.DefaultPollInterval, "poll interval (tail)")
	noPush := flag.Bool("no-push", false, "poll only, skip the websocket channel (tail)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := chatclient.New(*server)
	if err != nil {
		log.Fatalf("Invalid server: %v", err)
	}
	if err := client.Login(ctx, *user, *pass); err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "me":
		err = runMe(ctx, client)
	case "contacts":
		err = runContacts(ctx, client)
	case "search":
		err = runSearch(ctx, client, args)
	case "add":
		err = runAdd(ctx, client, args)
	case "requests":
		err = runRequests(ctx, client)
	case "accept":
		err = runAccept(ctx, client, args)
	case "send":
		err = runSend(ctx, client, *peer, args)
	case "tail":
		err = runTail(ctx, client, *peer, chatclient.Options{PollInterval: *poll, DisablePush: *noPush})
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: chatcli [flags] me|contacts|search PIN|add ID|requests|accept ID|send TEXT|tail\n\n")
	flag.PrintDefaults()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func runMe(ctx context.Context, c *chatclient.Client) error {
	me, err := c.Me(ctx)
	if err != nil {
		return err
	}
	if me == nil {
		return chatclient.ErrNotLoggedIn
	}
	fmt.Printf("%s  %s  PIN %s  admin=%v\n", me.ID, me.Username, me.PIN, me.IsAdmin)
	return nil
}

func runContacts(ctx context.Context, c *chatclient.Client) error {
	contacts, err := c.Contacts(ctx)
	if err != nil {
		return err
	}
	for _, ct := range contacts {
		fmt.Printf("%s  %-20s %3d unread\n", ct.ID, ct.Username, ct.UnreadMsgs)
	}
	return nil
}

func runSearch(ctx context.Context, c *chatclient.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected a PIN")
	}
	hits, err := c.SearchPIN(ctx, args[0])
	if err != nil {
		return err
	}
	for _, h := range hits {
		fmt.Printf("%s  %s (%s)\n", h.ID, h.Username, h.PIN)
	}
	return nil
}

func runAdd(ctx context.Context, c *chatclient.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected an id or username")
	}
	if err := c.RequestContact(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("request sent")
	return nil
}

func runRequests(ctx context.Context, c *chatclient.Client) error {
	pending, err := c.PendingRequests(ctx)
	if err != nil {
		return err
	}
	for _, p := range pending {
		fmt.Printf("%s  %-20s %s\n", p.ID, p.Username, p.CreatedAt.Local().Format(time.DateTime))
	}
	return nil
}

func runAccept(ctx context.Context, c *chatclient.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected a requester id")
	}
	ct, err := c.AcceptRequest(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("now in contact with %s\n", ct.Username)
	return nil
}

func runSend(ctx context.Context, c *chatclient.Client, peer string, args []string) error {
	if peer == "" || len(args) == 0 {
		return fmt.Errorf("-peer and a message are required")
	}
	text := strings.Join(args, " ")
	m, err := c.Send(ctx, &domain.SendMessageRequest{ReceiverID: peer, Content: &text})
	if err != nil {
		return err
	}
	fmt.Printf("sent #%d\n", m.ID)
	return nil
}

func runTail(ctx context.Context, c *chatclient.Client, peer string, opts chatclient.Options) error {
	if peer == "" {
		return fmt.Errorf("-peer is required")
	}

	// OnChange runs on the session loop; printed is only touched there
	printed := map[int64]bool{}
	wasTyping := false
	opts.OnChange = func(v chatclient.View) {
		for _, e := range v.Messages {
			if e.Optimistic || printed[e.ID] {
				continue
			}
			printed[e.ID] = true
			printEntry(v.Peer, e)
		}
		if v.PeerTyping && !wasTyping {
			fmt.Println("  ... typing")
		}
		wasTyping = v.PeerTyping
	}

	s, err := c.Open(ctx, peer, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if err := s.Typing(); err != nil {
				return err
			}
			if _, err := s.SendText(line); err != nil {
				return err
			}
		}
	}
}

func printEntry(peer string, e chatclient.Entry) {
	who := "me"
	if e.SenderPublicID == peer {
		who = "them"
	}
	body := ""
	switch {
	case e.IsDeleted:
		body = "(deleted)"
	case e.Content != nil:
		body = *e.Content
	case e.ImageURL != nil:
		body = "[image] " + *e.ImageURL
	case e.StickerURL != nil:
		body = "[sticker] " + *e.StickerURL
	case e.AudioURL != nil:
		body = "[audio] " + *e.AudioURL
	}
	fmt.Printf("[%s] %-4s %s\n", e.CreatedAt.Local().Format(time.TimeOnly), who, body)
}
