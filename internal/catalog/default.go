package catalog

import "eventradar/internal/discovery"

// Default returns the built-in catalog used when no catalog is configured.
// It mirrors the production deployment's tiers for Nigerian event discovery.
func Default() *Catalog {
	return New(defaultEntries())
}

func defaultEntries() []discovery.QueryDescriptor {
	search := func(text string, p discovery.Priority) discovery.QueryDescriptor {
		return discovery.QueryDescriptor{Text: text, Priority: p, Kind: discovery.KindSearch}
	}
	social := func(text string) discovery.QueryDescriptor {
		return discovery.QueryDescriptor{Text: text, Priority: discovery.PrioritySocial, Kind: discovery.KindSocial}
	}
	media := func(text string) discovery.QueryDescriptor {
		return discovery.QueryDescriptor{Text: text, Priority: discovery.PriorityMedia, Kind: discovery.KindMedia}
	}

	return []discovery.QueryDescriptor{
		// Urgent: today's events and headline conferences.
		search("events today Nigeria", discovery.PriorityUrgent),
		search("conferences this week Lagos", discovery.PriorityUrgent),
		search("business events Abuja today", discovery.PriorityUrgent),
		search("tech conferences Lagos 2025", discovery.PriorityUrgent),
		search("Nigeria summit today", discovery.PriorityUrgent),
		search("site:bellanaija.com events Lagos", discovery.PriorityUrgent),
		search("site:pulse.ng conferences Nigeria", discovery.PriorityUrgent),

		// High: major cities and flagship industries.
		search("Lagos business events", discovery.PriorityHigh),
		search("Abuja conferences", discovery.PriorityHigh),
		search("Port Harcourt events", discovery.PriorityHigh),
		search("Nigeria oil gas conference", discovery.PriorityHigh),
		search("Nigerian banking summit", discovery.PriorityHigh),
		search("Lagos tech startup events", discovery.PriorityHigh),
		search("site:vanguardngr.com events Nigeria", discovery.PriorityHigh),
		search("site:premiumtimesng.com conferences Lagos", discovery.PriorityHigh),
		search("site:thenationonlineng.net business events", discovery.PriorityHigh),
		search("site:punchng.com summit Nigeria", discovery.PriorityHigh),
		search("site:dailytrust.com conferences Abuja", discovery.PriorityHigh),

		// Medium: regional centers.
		search("Kaduna business events", discovery.PriorityMedium),
		search("Enugu conferences", discovery.PriorityMedium),
		search("Benin City events", discovery.PriorityMedium),
		search("Jos tech events", discovery.PriorityMedium),
		search("Warri oil events", discovery.PriorityMedium),
		search("Calabar conferences", discovery.PriorityMedium),
		search("Ilorin business summit", discovery.PriorityMedium),
		search("Maiduguri events", discovery.PriorityMedium),
		search("Aba trade events", discovery.PriorityMedium),
		search("Onitsha commerce events", discovery.PriorityMedium),

		// Low: smaller cities and niche topics.
		search("Sokoto events", discovery.PriorityLow),
		search("Bauchi conferences", discovery.PriorityLow),
		search("Gombe business events", discovery.PriorityLow),
		search("Yola tech events", discovery.PriorityLow),
		search("Akure events", discovery.PriorityLow),
		search("Nigeria agriculture events", discovery.PriorityLow),
		search("Nigerian education summit", discovery.PriorityLow),
		search("Nigeria health conference", discovery.PriorityLow),
		search("Nigerian arts festival", discovery.PriorityLow),
		search("Nigeria sports events", discovery.PriorityLow),

		// Social: platform-scoped searches.
		social("site:linkedin.com Lagos events"),
		social("site:facebook.com Abuja conferences"),
		social("site:twitter.com Nigeria business events"),
		social("site:instagram.com Lagos tech events"),
		social("site:eventbrite.com Nigeria conferences"),
		social("site:meetup.com Lagos tech meetup"),
		social("site:linkedin.com Nigeria summit"),
		social("site:facebook.com Port Harcourt events"),
		social(`"Nigeria event" site:linkedin.com OR site:facebook.com`),
		social(`"Lagos conference" site:twitter.com OR site:instagram.com`),
		social(`"Abuja summit" site:linkedin.com`),
		social(`"Nigerian business event" site:facebook.com`),
		social("site:nairaland.com events Lagos"),
		social("site:nairaland.com conferences Nigeria"),

		// Media: national news and event sites.
		media("site:bellanaija.com events OR conferences OR summit"),
		media("site:pulse.ng business events OR tech conference"),
		media("site:vanguardngr.com Lagos events OR Abuja conference"),
		media("site:premiumtimesng.com Nigeria summit OR business event"),
		media("site:thenationonlineng.net conferences OR events Nigeria"),
		media("site:punchng.com Lagos business OR tech events"),
		media("site:dailytrust.com Abuja events OR Northern Nigeria"),
		media("site:leadership.ng events OR conferences Nigeria"),
		media("site:businessday.ng Lagos summit OR investment"),
		media("site:guardian.ng Nigeria events OR conferences"),
	}
}
