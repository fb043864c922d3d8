package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"gridarena.ai/internal/agents/wanderer"
	"gridarena.ai/internal/protocol"
)

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "bot", "agent name")
		codec = flag.String("codec", protocol.CodecJSON, "frame codec: json|msgpack")
		radar = flag.Int("radar", wanderer.DefaultConfig().RadarPower, "radar power for tanks")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		AgentName:       *name,
		Codec:           *codec,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	var welcome protocol.WelcomeMsg
	_, raw, err := conn.ReadMessage()
	if err != nil {
		logger.Fatalf("read WELCOME: %v", err)
	}
	if err := json.Unmarshal(raw, &welcome); err != nil || welcome.Type != protocol.TypeWelcome {
		logger.Fatalf("handshake failed: %s", raw)
	}
	c, err := protocol.CodecFor(welcome.Codec)
	if err != nil {
		logger.Fatalf("codec: %v", err)
	}
	logger.Printf("welcome agent=%s kind=%s mode=%s map=%s %dx%d codec=%s",
		welcome.Agent, welcome.Kind, welcome.Mode, welcome.World.MapName, welcome.World.Width, welcome.World.Height, c.Name())

	cfg := wanderer.DefaultConfig()
	cfg.RadarPower = *radar
	brain := wanderer.New(cfg)
	frameType := websocket.TextMessage
	if c.Binary() {
		frameType = websocket.BinaryMessage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var base protocol.BaseMessage
		if err := c.Unmarshal(msg, &base); err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeSensors:
			var s protocol.SensorsMsg
			if err := c.Unmarshal(msg, &s); err != nil {
				logger.Printf("bad SENSORS: %v", err)
				continue
			}
			cmd, err := brain.NextCommand(ctx, welcome.Agent, s.Sensors)
			if err != nil {
				logger.Printf("tick=%d decide: %v", s.Tick, err)
				continue
			}
			out, err := c.Marshal(protocol.CommandMsg{
				Type:            protocol.TypeCommand,
				ProtocolVersion: protocol.Version,
				Tick:            s.Tick,
				Command:         cmd,
			})
			if err != nil {
				logger.Printf("encode COMMAND: %v", err)
				continue
			}
			if err := conn.WriteMessage(frameType, out); err != nil {
				return
			}
		case protocol.TypeError:
			var e protocol.ErrorMsg
			_ = c.Unmarshal(msg, &e)
			logger.Printf("server error %s: %s", e.Code, e.Message)
		case protocol.TypeEnd:
			var end protocol.EndMsg
			_ = c.Unmarshal(msg, &end)
			logger.Printf("run ended at tick %d: %s", end.Tick, end.Reason)
			for _, st := range end.Standings {
				logger.Printf("  #%d %s score=%d %s", st.Rank, st.Agent, st.Score, st.Outcome)
			}
			return
		}
	}
}
