package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"plant-diagnosis-server/internal/bootstrap"
)

const defaultPollInterval = 30 * time.Second

func main() {
	once := flag.Bool("once", false, "run a single diagnosis cycle and exit")
	flag.Parse()

	opts := bootstrap.Options{RunOnce: *once}

	// An optional positional argument sets the poll interval in seconds.
	if arg := flag.Arg(0); arg != "" {
		seconds, err := strconv.Atoi(arg)
		if err != nil || seconds <= 0 {
			fmt.Printf("[%s] [WARN] invalid interval %q, using default %s\n",
				time.Now().Format("2006-01-02 15:04:05.000"), arg, defaultPollInterval)
			opts.PollInterval = defaultPollInterval
		} else {
			opts.PollInterval = time.Duration(seconds) * time.Second
		}
	}

	fmt.Printf("[%s] [INFO] [BOOT] starting plant-diagnosis-server...\n",
		time.Now().Format("2006-01-02 15:04:05.000"))
	if err := bootstrap.Run(context.Background(), opts); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "plant-diagnosis-server failed: %v\n", err)
		os.Exit(1)
	}
}
