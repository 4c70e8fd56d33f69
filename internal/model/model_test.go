package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrawlResult(t *testing.T) {
	t.Parallel()

	t.Run("starts failed with empty urls", func(t *testing.T) {
		t.Parallel()
		r := NewCrawlResult("Selectel", "https://docs.selectel.ru/", "plain")
		assert.Equal(t, StatusFailed, r.Status)
		assert.NotNil(t, r.URLs)
		assert.Empty(t, r.URLs)
	})

	t.Run("succeed", func(t *testing.T) {
		t.Parallel()
		r := NewCrawlResult("A", "p", "plain")
		r.Succeed([]string{"u1", "u2"})
		assert.True(t, r.Status.IsSuccess())
		assert.Equal(t, []string{"u1", "u2"}, r.URLs)
		assert.GreaterOrEqual(t, r.Duration().Nanoseconds(), int64(0))
	})

	t.Run("succeed with nil keeps empty slice", func(t *testing.T) {
		t.Parallel()
		r := NewCrawlResult("A", "p", "plain")
		r.Succeed(nil)
		assert.NotNil(t, r.URLs)
	})

	t.Run("fail clears urls and records error", func(t *testing.T) {
		t.Parallel()
		r := NewCrawlResult("A", "p", "protected")
		r.Succeed([]string{"u"})
		r.Fail(errors.New("no xml extracted"))
		assert.Equal(t, StatusFailed, r.Status)
		assert.Empty(t, r.URLs)
		assert.Equal(t, "no xml extracted", r.Error)
	})
}

func TestURLsByProvider(t *testing.T) {
	t.Parallel()

	a := NewCrawlResult("A", "", "plain")
	a.Succeed([]string{"x"})
	b := NewCrawlResult("B", "", "protected")
	b.Fail(errors.New("boom"))

	got := URLsByProvider([]*CrawlResult{a, b})
	assert.Equal(t, map[string][]string{"A": {"x"}, "B": {}}, got)
}

func TestNewPageReport(t *testing.T) {
	t.Parallel()

	p := NewPageReport("https://docs.example.test/page")
	assert.Equal(t, StatusFailed, p.Status)
	assert.Equal(t, NotAvailable, p.Title)
	assert.Equal(t, NotAvailable, p.Description)
	assert.Equal(t, NotAvailable, p.LastUpdateDate)
	assert.NotNil(t, p.CodeLanguages)
	assert.NotNil(t, p.FoundTools)

	p.Body = []byte("x")
	p.Text = "x"
	p.Release()
	assert.Nil(t, p.Body)
	assert.Empty(t, p.Text)

	p.Fail(errors.New("timeout"))
	assert.Equal(t, "timeout", p.ErrorMessage)
}
