// Package doctor walks the three things that must work for dictation:
// the toggle path, the microphone plus the speech model, and text
// delivery.
package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"murmur/audio"
	"murmur/clipboard"
	"murmur/config"
	"murmur/log"
	"murmur/transcriber"
)

// Run executes interactive diagnostic checks and returns an exit code
// (0=all pass, 1=any fail).
func Run(cfg config.Config, logger *log.Logger) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("murmur doctor - interactive system diagnostics")
	fmt.Println("==============================================")

	if missing := clipboard.CheckDependencies(); len(missing) > 0 {
		fmt.Println()
		fmt.Printf("Missing tools: %s\n", strings.Join(missing, ", "))
	}

	allPass := true

	if !checkToggle(cfg.Hotkey, logger) {
		allPass = false
	}
	if allPass && !checkMicAndTranscription(cfg, logger) {
		allPass = false
	}
	if allPass && !checkDelivery(logger) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkMicAndTranscription(cfg config.Config, logger *log.Logger) bool {
	fmt.Println()
	fmt.Println("[2/3] Microphone and transcription")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	device, err := audio.SelectDevice(ctx)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("Using device: %s\n", device.Name)

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nPress Enter and speak for 3 seconds...")
	reader.ReadString('\n')

	rec := audio.NewRecorder(ctx, logger)
	rec.SetDevice(device)
	if err := rec.Start(); err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}

	fmt.Print("  Recording")
	for range 6 {
		time.Sleep(500 * time.Millisecond)
		fmt.Print(".")
	}
	buf := rec.Stop()
	fmt.Println(" done")

	if buf.Empty() {
		fmt.Println("  FAIL: no audio captured")
		return false
	}
	fmt.Printf("  Captured %.1fs of audio, transcribing...\n", buf.Duration())

	modelPath, err := transcriber.ResolveModelPath(cfg.Model)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	engine, err := transcriber.New(transcriber.Config{
		Model:   modelPath,
		Compute: transcriber.ResolveCompute(cfg.Compute, logger),
	}, logger)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	defer engine.Close()

	text, err := engine.Transcribe(context.Background(), buf.Samples, cfg.Language)
	if errors.Is(err, transcriber.ErrDisabled) {
		fmt.Printf("  SKIP: %v\n", err)
		fmt.Println("  PASS: microphone capture verified")
		return true
	}
	if err != nil {
		fmt.Printf("  FAIL: transcription error: %v\n", err)
		return false
	}
	if text == "" {
		text = "(no speech detected)"
	}

	fmt.Printf("\n  Transcribed text: %s\n\n", text)

	// Fresh reader to clear any buffered input
	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}
	fmt.Println("  FAIL: transcription not confirmed")
	return false
}

func checkDelivery(logger *log.Logger) bool {
	fmt.Println()
	fmt.Println("[3/3] Clipboard and paste")

	testStr := "murmur-doctor-test"
	if err := clipboard.Copy(testStr); err != nil {
		fmt.Printf("  FAIL: clipboard copy failed: %v\n", err)
		return false
	}
	got, err := clipboard.Read()
	if err != nil {
		fmt.Printf("  FAIL: clipboard read failed: %v\n", err)
		return false
	}
	if got != testStr {
		fmt.Printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", testStr, got)
		return false
	}
	fmt.Println("  PASS: clipboard write/read verified")

	fmt.Println()
	fmt.Println("Focus a text editor window...")
	for i := 5; i > 0; i-- {
		fmt.Printf("  %d...\n", i)
		time.Sleep(1 * time.Second)
	}

	delivery := clipboard.New(logger, true)
	if err := delivery.Deliver(testStr); err != nil {
		fmt.Printf("  FAIL: paste failed: %v\n", err)
		return false
	}

	resetTerminal()
	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Println()
	fmt.Printf("Did the text %q appear? [y/n]: ", testStr)
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm != "y" && confirm != "yes" {
		fmt.Println("  FAIL: paste not confirmed")
		verifyInjection()
		return false
	}
	fmt.Println("  PASS: clipboard and paste verified by user")
	return true
}
