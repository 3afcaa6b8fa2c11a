package image

import (
	"bufio"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"
)

// Service picks artwork for round results. Each line of the source file is either a URL or
// "<tag> <url>", where tag is a result type such as win or loss.
type Service struct {
	mu     sync.Mutex
	tagged map[string][]string
	any    []string
	rng    *rand.Rand
}

// NewService creates a new image service. A missing file yields a service without images.
func NewService(imagePath string) (*Service, error) {
	s := &Service{
		tagged: make(map[string][]string),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	file, err := os.Open(imagePath)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 2 {
			tag := strings.ToLower(fields[0])
			s.tagged[tag] = append(s.tagged[tag], fields[1])
			continue
		}
		s.any = append(s.any, fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return s, nil
}

// ImageFor returns a random URL tagged for the result type, falling back to untagged images.
// It returns "" when nothing fits.
func (s *Service) ImageFor(tag string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool := s.tagged[strings.ToLower(tag)]
	if len(pool) == 0 {
		pool = s.any
	}
	if len(pool) == 0 {
		return ""
	}
	return pool[s.rng.Intn(len(pool))]
}
