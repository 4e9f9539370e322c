package parser

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcurrentParsing(t *testing.T) {
	manager := NewParserManager(testLogger(), WithPoolSize(4))
	defer manager.Close()

	const numGoroutines = 100
	var wg sync.WaitGroup
	errs := make(chan error, numGoroutines)

	src := []byte(consoleExterns)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, err := manager.Parse(src, LanguageJavaScript)
			if err != nil {
				errs <- err
				return
			}
			tree.Close()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("parse failed: %v", err)
	}

	stats := manager.GetStats()
	assert.LessOrEqual(t, stats.ParsersCreated, 4, "pool size must cap parser creation")
	assert.GreaterOrEqual(t, stats.ParsersCreated, 1)
	assert.Equal(t, int64(numGoroutines), stats.ParsesCalled)
}

func TestConcurrentMultiLanguage(t *testing.T) {
	manager := NewParserManager(testLogger())
	defer manager.Close()

	const perLanguage = 20
	languages := SupportedLanguages()

	var wg sync.WaitGroup
	errs := make(chan error, len(languages)*perLanguage)
	for _, lang := range languages {
		for i := 0; i < perLanguage; i++ {
			wg.Add(1)
			go func(l Language) {
				defer wg.Done()
				tree, err := manager.Parse([]byte("var x;"), l)
				if err != nil {
					errs <- err
					return
				}
				tree.Close()
			}(lang)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("parse failed: %v", err)
	}
	stats := manager.GetStats()
	assert.GreaterOrEqual(t, stats.ParsersCreated, len(languages))
	assert.Equal(t, int64(len(languages)*perLanguage), stats.ParsesCalled)
}
