package projectconfig

func defaultCriteria() []CriterionConfig {
	return []CriterionConfig{
		{Name: "originality", Weight: 0.15, Description: "How unique and fresh is the concept?"},
		{Name: "coherence", Weight: 0.15, Description: "How well does the plot hold together?"},
		{Name: "market_potential", Weight: 0.15, Description: "Will readers want to read this?"},
		{Name: "character_depth", Weight: 0.15, Description: "Are the characters compelling?"},
		{Name: "thematic_richness", Weight: 0.15, Description: "Does it explore meaningful themes?"},
		{Name: "expandability", Weight: 0.25, Description: "Can this sustain a 100k+ word novel?"},
	}
}

func defaultModelFallbacks() map[string]string {
	return map[string]string{
		"gpt-4.1-nano": "gpt-4o-mini",
		"gpt-4.1-mini": "gpt-4o-mini",
		"gpt-4.1":      "gpt-4o",
		"o3-mini":      "o1-mini",
		"o4-mini":      "o1-mini",
		"o3":           "gpt-4o",
	}
}

func defaultProducers() []AgentConfig {
	producer := func(name, direction string, temperature float64) AgentConfig {
		return AgentConfig{Name: name, Kind: DefaultAgentKind, Temperature: &temperature, Direction: direction}
	}
	return []AgentConfig{
		producer("Cosmic Storytellers",
			"Masters of expansive, universe-spanning narratives. Build rich worlds with complex character relationships and ambitious scope.", 0.7),
		producer("Neural Narratives",
			"Structural innovators. Favor non-linear storytelling, multiple perspectives, nested narratives and experimental formats.", 0.7),
		producer("Quantum Plotters",
			"Masters of intricate plotting and satisfying twists. Every thread matters; reward careful attention with clever misdirection.", 0.7),
		producer("Mythic Forge",
			"Transformative genre-blending alchemists. Combine elements that should not work together and make them sing.", 0.8),
		producer("Echo Chamber",
			"Weavers of surreal, psychologically resonant stories that work on literal and symbolic levels at once.", 0.9),
	}
}

func defaultEvaluators() []AgentConfig {
	evaluator := func(name, focus string) AgentConfig {
		return AgentConfig{Name: name, Kind: DefaultAgentKind, Direction: focus}
	}
	return []AgentConfig{
		evaluator("The Curator", "Literary excellence and artistic vision"),
		evaluator("Genre Maven", "Genre conventions and innovation"),
		evaluator("Mind Reader", "Character psychology and authenticity"),
		evaluator("Trend Prophet", "Market potential and reader appeal"),
		evaluator("Architect Prime", "Story structure and pacing"),
		evaluator("Wisdom Keeper", "Thematic depth and meaning"),
		evaluator("Pulse Checker", "Reader experience and engagement"),
		evaluator("Edge Walker", "Experimental and boundary-pushing narratives"),
		evaluator("Time Sage", "Pacing and temporal flow mastery"),
		evaluator("Voice Whisperer", "Dialogue authenticity and narrative voice"),
		evaluator("World Builder", "Setting, atmosphere, and world consistency"),
	}
}
