// Command axofuegoctl is the operator's terminal client: it polls a
// running engine's /api/status endpoint and renders channel state, or
// sends one-shot fire/stop/emergency commands.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

var engineAddr string

func main() {
	root := &cobra.Command{
		Use:   "axofuegoctl",
		Short: "Operator CLI for the axofuego fire-control engine",
	}
	root.PersistentFlags().StringVar(&engineAddr, "addr", "http://127.0.0.1:8080", "engine HTTP address")

	root.AddCommand(statusCmd())
	root.AddCommand(fireCmd())
	root.AddCommand(stopCmd())
	root.AddCommand(resetCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type channelStatus struct {
	ID            int   `json:"ID"`
	Pin           int   `json:"Pin"`
	Active        bool  `json:"Active"`
	TimeRemaining int64 `json:"TimeRemaining"`
}

type patternStatus struct {
	Playing     bool   `json:"Playing"`
	BPM         int    `json:"BPM"`
	CurrentTick int    `json:"CurrentTick"`
	PatternName string `json:"PatternName"`
}

type apiStatus struct {
	Channels        []channelStatus `json:"channels"`
	EmergencyActive bool            `json:"emergency_active"`
	Pattern         *patternStatus  `json:"pattern_status"`
}

func statusCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show channel and scheduler status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !watch {
				return renderStatus()
			}
			for {
				if err := renderStatus(); err != nil {
					return err
				}
				time.Sleep(time.Second)
			}
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "refresh every second")
	return cmd
}

func renderStatus() error {
	status, err := fetchStatus()
	if err != nil {
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Println(bold("Axofuego channel status"))
	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("Channel", "Pin", "State", "Remaining")
	tbl.WithHeaderFormatter(headerFmt)

	for _, c := range status.Channels {
		state := green("idle")
		if c.Active {
			state = red("firing")
		}
		tbl.AddRow(c.ID, c.Pin, state, time.Duration(c.TimeRemaining).String())
	}
	tbl.Print()

	if status.EmergencyActive {
		fmt.Println(red(bold("EMERGENCY STOP ACTIVE")))
	}
	if status.Pattern != nil && status.Pattern.PatternName != "" {
		fmt.Printf("Pattern: %s  playing=%v  bpm=%d  tick=%d\n",
			status.Pattern.PatternName, status.Pattern.Playing, status.Pattern.BPM, status.Pattern.CurrentTick)
	}
	return nil
}

func fetchStatus() (*apiStatus, error) {
	resp, err := http.Get(engineAddr + "/api/status")
	if err != nil {
		return nil, fmt.Errorf("reach engine: %w", err)
	}
	defer resp.Body.Close()

	var status apiStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

func fireCmd() *cobra.Command {
	var duration float64
	cmd := &cobra.Command{
		Use:   "fire <target>",
		Short: "Fire one channel, or \"all\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postControl("fire", args[0], duration)
		},
	}
	cmd.Flags().Float64Var(&duration, "duration", 0, "seconds, 0 uses the engine's configured maximum")
	return cmd
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <target>",
		Short: "Stop one channel, or \"all\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postControl("stop", args[0], 0)
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the emergency stop latch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Post(engineAddr+"/api/reset", "application/json", bytes.NewReader([]byte("{}")))
			if err != nil {
				return fmt.Errorf("reach engine: %w", err)
			}
			defer resp.Body.Close()

			var reply map[string]interface{}
			if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
				return fmt.Errorf("decode reply: %w", err)
			}
			fmt.Printf("reset: %v\n", reply["status"])
			return nil
		},
	}
}

func postControl(action, target string, duration float64) error {
	body := map[string]interface{}{"action": action, "target": target}
	if duration > 0 {
		body["duration"] = duration
	}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := http.Post(engineAddr+"/api/"+action, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("reach engine: %w", err)
	}
	defer resp.Body.Close()

	var reply map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	fmt.Printf("%s %s: %v\n", action, target, reply["status"])
	return nil
}
