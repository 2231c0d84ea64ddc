// dispatchctl is a terminal client for the dispatch API.
//
//	dispatchctl [flags] board [-json]
//	dispatchctl [flags] accept <booking-id>
//	dispatchctl [flags] decline <booking-id>
//	dispatchctl [flags] map <booking-id> [out.html]
//	dispatchctl token <actor-id> <seeker|provider>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/handyhub/dispatch-api/internal/client"
	"github.com/handyhub/dispatch-api/internal/config"
	"github.com/handyhub/dispatch-api/internal/domain/booking"
	"github.com/handyhub/dispatch-api/internal/domain/dispatch"
	"github.com/handyhub/dispatch-api/internal/pkg/jwt"
	"github.com/handyhub/dispatch-api/internal/pkg/refresh"
	"github.com/handyhub/dispatch-api/internal/pkg/validator"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "dispatchctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("dispatchctl", flag.ContinueOnError)
	server := fs.String("server", envOr("DISPATCH_SERVER", "http://localhost:8080"), "API base URL")
	token := fs.String("token", os.Getenv("DISPATCH_TOKEN"), "bearer token")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	asJSON := fs.Bool("json", false, "print the board as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New("missing command: board, accept, decline, map or token")
	}

	if rest[0] == "token" {
		return mintToken(rest[1:], out)
	}

	c := client.New(*server, *token, *timeout)
	switch rest[0] {
	case "board":
		boardFlags := flag.NewFlagSet("board", flag.ContinueOnError)
		boardJSON := boardFlags.Bool("json", *asJSON, "print the board as JSON")
		if err := boardFlags.Parse(rest[1:]); err != nil {
			return err
		}
		if boardFlags.NArg() != 0 {
			return errors.New("usage: board [-json]")
		}

		board, err := c.Board(ctx)
		if err != nil {
			return err
		}
		if *boardJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(board)
		}
		printBoard(out, board)
		return nil

	case "accept", "decline":
		if len(rest) != 2 {
			return fmt.Errorf("usage: %s <booking-id>", rest[0])
		}
		status := booking.StatusAccepted
		if rest[0] == "decline" {
			status = booking.StatusDeclined
		}
		return decide(ctx, c, rest[1], status, out)

	case "map":
		if len(rest) < 2 || len(rest) > 3 {
			return errors.New("usage: map <booking-id> [out.html]")
		}
		html, etag, err := c.Map(ctx, rest[1])
		if err != nil {
			return err
		}
		if len(rest) == 3 {
			if err := os.WriteFile(rest[2], html, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s (etag %s)\n", rest[2], etag)
			return nil
		}
		_, err = out.Write(html)
		return err

	default:
		return fmt.Errorf("unknown command %q", rest[0])
	}
}

func decide(ctx context.Context, c *client.Client, id string, status booking.Status, out io.Writer) error {
	res, err := c.Transition(ctx, id, status)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidTransition):
			return fmt.Errorf("booking %s was already decided", id)
		case refresh.IsRetryable(err):
			return fmt.Errorf("%w (temporary, try again)", err)
		}
		return err
	}
	if !res.Changed {
		fmt.Fprintf(out, "booking %s was already %s\n", id, res.Booking.Status)
		return nil
	}
	fmt.Fprintf(out, "booking %s %s\n", id, res.Booking.Status)
	return nil
}

type tokenRequest struct {
	ActorID string `json:"actorId" validate:"required"`
	Role    string `json:"role" validate:"required,actor_role"`
}

// mintToken issues a development token signed with JWT_SECRET.
func mintToken(args []string, out io.Writer) error {
	if len(args) != 2 {
		return errors.New("usage: token <actor-id> <seeker|provider>")
	}
	req := tokenRequest{ActorID: args[0], Role: args[1]}
	if errs := validator.Validate(&req); errs != nil {
		if msg, ok := errs["role"]; ok {
			return errors.New(msg)
		}
		return errors.New("actor id is required")
	}

	cfg := config.Load()
	svc := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)
	token, err := svc.GenerateAccessToken(req.ActorID, req.Role)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

func printBoard(out io.Writer, board *dispatch.BoardResponse) {
	section := func(title string, entries []*dispatch.EntryResponse) {
		fmt.Fprintf(out, "%s (%d)\n", title, len(entries))
		for _, e := range entries {
			mapFlag := " "
			if e.MapAvailable {
				mapFlag = "M"
			}
			fmt.Fprintf(out, "  %s %-36s %-9s %-24s %s\n", mapFlag, e.Booking.ID, e.Booking.Status, e.CounterpartName, e.Booking.JobTitle)
		}
	}
	if board.ActionsAllowed {
		section("Awaiting decision", board.Actionable)
	} else {
		section("Pending", board.Actionable)
	}
	section("History", board.History)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
