package main

import (
	"fmt"
	"os"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-genmidi/midi"
	"go-genmidi/theme"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	defer midi.CloseDriver()

	arg := func() string {
		if len(os.Args) < 3 {
			return ""
		}
		return os.Args[2]
	}
	switch os.Args[1] {
	case "list":
		listPorts()
	case "notes":
		sendNotes(arg())
	case "clock":
		watchClock(arg())
	case "leds":
		testLEDs(arg())
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list          - List all MIDI ports")
	fmt.Println("  notes <port>  - Play a short arpeggio")
	fmt.Println("  clock <port>  - Print the tempo of incoming MIDI clock")
	fmt.Println("  leds [port]   - Sweep the palette across a Launchpad")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins, outs []string
	}
	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: midi.InPortNames(), outs: midi.OutPortNames()}
	}()

	select {
	case r := <-ch:
		for i, name := range r.ins {
			fmt.Printf("  %d: %s\n", i, name)
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, name := range r.outs {
			fmt.Printf("  %d: %s\n", i, name)
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
	}
}

func sendNotes(port string) {
	send, err := midi.NewSenders().Get(port)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Playing on %s\n", port)
	for _, key := range []uint8{60, 64, 67, 72, 67, 64, 60} {
		send(gomidi.NoteOn(0, key, 100))
		time.Sleep(150 * time.Millisecond)
		send(gomidi.NoteOff(0, key))
	}
	fmt.Println("Done!")
}

func watchClock(port string) {
	cl, err := midi.ListenClock(port)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer cl.Close()
	fmt.Printf("Listening for clock on %s. Ctrl+C to exit.\n", cl.Name())

	// one-second windows at a millisecond "sample rate"
	const window = 1000
	var evs []midi.Event
	start := time.Now()
	for {
		time.Sleep(time.Until(start.Add(time.Second)))
		evs = cl.Drain(evs[:0], start, 1000, window)
		start = start.Add(time.Second)

		ticks := 0
		for _, ev := range evs {
			switch ev.Message[0] {
			case 0xF8:
				ticks++
			case 0xFA:
				fmt.Println("  start")
			case 0xFB:
				fmt.Println("  continue")
			case 0xFC:
				fmt.Println("  stop")
			}
		}
		if ticks > 0 {
			fmt.Printf("[%s] %d ticks, %.1f bpm\n", start.Format("15:04:05"), ticks, float64(ticks)/24*60)
		}
		if n := cl.Dropped(); n > 0 {
			fmt.Printf("  dropped %d\n", n)
		}
	}
}

func testLEDs(port string) {
	if port == "" {
		port = "Launchpad X LPX MIDI"
	}
	in, err := midi.FindIn(port)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	out, err := midi.FindOut(port)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	lp, err := midi.NewLaunchpad(in.String(), in, out)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer lp.Close()

	fmt.Println("Sweeping palette...")
	th := theme.New(nil)
	for frame := 0; frame < 32; frame++ {
		var updates []midi.LEDUpdate
		for row := 0; row < 8; row++ {
			for col := 0; col < 8; col++ {
				norm := float64((row+col+frame)%16) / 15
				updates = append(updates, midi.LEDUpdate{Row: row, Col: col, Color: th.RGB(norm)})
			}
		}
		if err := lp.SetLEDBatch(updates); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		time.Sleep(60 * time.Millisecond)
	}

	fmt.Println("Press Enter to clear...")
	fmt.Scanln()
	fmt.Printf("Done! %d messages sent\n", lp.Sent())
}
