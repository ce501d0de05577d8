// Package headers builds a pool of realistic browser fingerprints and hands
// them out round-robin, so consecutive requests do not look identical.
package headers

import (
	"math/rand"
	"sync"
)

// Profile is one browser fingerprint: the header set sent with a request.
type Profile struct {
	UserAgent      string
	Accept         string
	AcceptLanguage string
	AcceptEncoding string
	Referer        string
	Extra          map[string]string
}

// Headers returns the profile as a flat header map.
func (p Profile) Headers() map[string]string {
	h := map[string]string{
		"User-Agent":      p.UserAgent,
		"Accept":          p.Accept,
		"Accept-Language": p.AcceptLanguage,
		"Accept-Encoding": p.AcceptEncoding,
		"Connection":      "keep-alive",
	}
	if p.Referer != "" {
		h["Referer"] = p.Referer
	}
	for k, v := range p.Extra {
		h[k] = v
	}
	return h
}

var referers = []string{
	"https://www.google.com/",
	"https://www.investing.com/",
	"https://finance.yahoo.com/",
	"https://www.bloomberg.com/",
	"https://www.marketwatch.com/",
}

var chromeAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
}

var firefoxAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:124.0) Gecko/20100101 Firefox/124.0",
}

const safariAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"

// Rotator cycles through a fixed pool of profiles. The pool spans three
// browser families so rotation changes the header shape, not just the
// user agent string.
type Rotator struct {
	mu       sync.Mutex
	profiles []Profile
	next     int
}

// NewRotator builds the profile pool. Referer choice per profile is driven
// by seed, so a fixed seed yields a reproducible pool.
func NewRotator(seed int64) *Rotator {
	rng := rand.New(rand.NewSource(seed))

	var profiles []Profile
	for _, ua := range chromeAgents {
		profiles = append(profiles, Profile{
			UserAgent:      ua,
			Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
			AcceptLanguage: "en-US,en;q=0.9",
			AcceptEncoding: "gzip, deflate, br",
			Referer:        referers[rng.Intn(len(referers))],
			Extra: map[string]string{
				"Upgrade-Insecure-Requests": "1",
				"Sec-Fetch-Site":            "none",
				"Sec-Fetch-Mode":            "navigate",
				"Sec-Fetch-User":            "?1",
				"Sec-Fetch-Dest":            "document",
				"Cache-Control":             "max-age=0",
			},
		})
	}
	for _, ua := range firefoxAgents {
		profiles = append(profiles, Profile{
			UserAgent:      ua,
			Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			AcceptLanguage: "en-US,en;q=0.5",
			AcceptEncoding: "gzip, deflate",
			Referer:        referers[rng.Intn(len(referers))],
			Extra: map[string]string{
				"Upgrade-Insecure-Requests": "1",
			},
		})
	}
	profiles = append(profiles, Profile{
		UserAgent:      safariAgent,
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		AcceptLanguage: "en-us",
		AcceptEncoding: "gzip, deflate",
		Referer:        referers[rng.Intn(len(referers))],
	})

	return &Rotator{profiles: profiles}
}

// Next returns the next profile in round-robin order.
func (r *Rotator) Next() Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.profiles[r.next]
	r.next = (r.next + 1) % len(r.profiles)
	return p
}

// Size reports the pool size.
func (r *Rotator) Size() int {
	return len(r.profiles)
}
