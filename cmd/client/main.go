package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tilecraft/server/client"
	"tilecraft/server/config"
	"tilecraft/server/models"
)

// wander is a crude autopilot: walk forward, turn now and then, and try a
// random context menu action every few seconds.
type wander struct {
	rng  *rand.Rand
	turn float64
}

func (w *wander) input(tick int) models.Input {
	if tick%120 == 0 {
		w.turn = (w.rng.Float64() - 0.5) * 8
	}
	return models.Input{MoveZ: -1, LookDX: w.turn}
}

func (w *wander) act(s *client.Session) {
	if s.Pending() != nil {
		return
	}
	p := s.World().Player
	p.Pitch = -40
	p.UpdateLookTarget()

	menu, ok := s.OpenTileMenu()
	if !ok || len(menu.Actions) == 0 {
		return
	}
	i := w.rng.Intn(len(menu.Actions))
	if _, err := s.Choose(i); err != nil {
		log.Printf("Could not %s: %v", menu.Actions[i].Op.Verb(), err)
		s.CloseMenu()
		return
	}
	log.Printf("%s: %s", menu.Title, menu.Actions[i].Label())
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration")
	serverURL := flag.String("server", "", "server websocket url, overrides the configuration")
	duration := flag.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *serverURL != "" {
		cfg.Client.ServerURL = *serverURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	rules := models.DefaultActionRules()
	rules.DigChance = *cfg.Actions.DigChance
	session := client.NewSession(cfg.Client, rules, client.DialWebSocket, rng, nil)
	bot := &wander{rng: rng}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.Client.TickRate))
	defer ticker.Stop()

	for tick := 0; ; tick++ {
		select {
		case <-ctx.Done():
			session.Quit()
			log.Println("Client closed")
			return
		case <-ticker.C:
		}

		in := models.Input{}
		if session.State() == client.StateRunning {
			in = bot.input(tick)
			if tick%300 == 0 {
				bot.act(session)
			}
		}
		session.Tick(ctx, in)

		for _, note := range session.Notifications() {
			log.Println(note)
		}
		if session.State() == client.StateConnectionFailed {
			log.Fatalf("Connection failed after %d attempts", session.Attempts())
		}
	}
}
