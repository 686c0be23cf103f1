package promo

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading gzipped promo code files.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based promo code loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "promo-loader").Logger(),
	}
}

// Load reads a gzipped promo code file and returns a CodeSet. Each line is
// a code and a discount amount separated by a tab.
func (l *fileLoader) Load(ctx context.Context, filePath string) (CodeSet, error) {
	l.logger.Info().Str("file", filePath).Msg("loading promo code file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open promo code file")
		return nil, fmt.Errorf("failed to open promo code file %s: %w", filePath, err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to create gzip reader")
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", filePath, err)
	}
	defer gzipReader.Close()

	set, err := readCodes(ctx, gzipReader, filePath, l.logger)
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("file", filePath).
		Int("codes_loaded", set.Size()).
		Msg("promo code file loaded successfully")

	return set, nil
}

// readCodes parses "CODE<TAB>AMOUNT" lines from an uncompressed stream.
// Malformed lines are skipped with a warning rather than failing the load.
func readCodes(ctx context.Context, reader interface{ Read([]byte) (int, error) }, source string, logger zerolog.Logger) (*mapCodeSet, error) {
	set := NewMapCodeSet(1024).(*mapCodeSet)

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineCount := 0
	for scanner.Scan() {
		// Check context cancellation periodically
		if lineCount%100_000 == 0 {
			select {
			case <-ctx.Done():
				logger.Warn().Str("source", source).Msg("promo code loading cancelled")
				return nil, ctx.Err()
			default:
			}
		}
		lineCount++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		code, rawAmount, found := strings.Cut(line, "\t")
		if !found {
			logger.Warn().Str("source", source).Int("line", lineCount).Msg("promo line missing discount amount")
			continue
		}

		amount, err := strconv.ParseFloat(strings.TrimSpace(rawAmount), 64)
		if err != nil || amount < 0 {
			logger.Warn().Str("source", source).Int("line", lineCount).Msg("promo line has invalid discount amount")
			continue
		}

		set.Add(strings.TrimSpace(code), amount)
	}

	if err := scanner.Err(); err != nil {
		logger.Error().Err(err).Str("source", source).Msg("error reading promo code file")
		return nil, fmt.Errorf("error reading promo code file %s: %w", source, err)
	}

	return set, nil
}
