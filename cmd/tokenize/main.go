package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/netsampler/flowtop/pkg/flowtop/logging"
	"github.com/netsampler/flowtop/tokenizer"
)

var (
	ModelPath = flag.String("model", "tokenizer.json", "Serialized tokenizer model")
	Text      = flag.String("text", "", "Single text to encode")
	Batch     = flag.Bool("batch", false, "Encode every line read from stdin as one batch")
	CacheSize = flag.Int("cache", 1024, "Number of encoded texts kept in memory (0 disables)")

	LogLevel = flag.String("loglevel", "info", "Log level")
	LogFmt   = flag.String("logfmt", "normal", "Log formatter")
)

func main() {
	flag.Parse()

	logger, err := logging.NewLogger(*LogLevel, *LogFmt)
	if err != nil {
		log.Fatal(err)
	}

	model, err := tokenizer.Load(*ModelPath, tokenizer.WithCache(*CacheSize))
	if err != nil {
		logger.Fatal(err)
	}
	defer model.Close()

	if *Text != "" {
		ids, err := model.Encode(*Text)
		if err != nil {
			logger.Fatal(err)
		}
		fmt.Println(ids)
	}

	if !*Batch {
		return
	}

	var lines []string
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal(err)
	}

	batch, err := model.EncodeBatch(lines)
	if err != nil {
		logger.Fatal(err)
	}
	defer batch.Release()

	logger.WithFields(log.Fields{
		"sequences": batch.Len(),
		"lengths":   batch.Lengths(),
	}).Debug("encoded batch")
	for i := 0; i < batch.Len(); i++ {
		seq, err := batch.Sequence(i)
		if err != nil {
			logger.Fatal(err)
		}
		fmt.Println(seq)
	}
}
