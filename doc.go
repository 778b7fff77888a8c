// Package collective installs and operates a hub-and-spoke agent collective
// on top of Claude Code: agent persona files under .claude/agents/, hook
// wiring that enforces routing and test-driven handoffs, an A/B experiment
// framework over agent configurations, and a dependency-aware task queue.
//
// The typical entry point is New, which opens an installed collective:
//
//	c, err := collective.New(".")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, def := range c.Agents().List() {
//		fmt.Println(def.Name)
//	}
//
// The collective binary (cmd/collective) wraps this library and additionally
// implements the host's hook protocol as `collective hook <name>`.
package collective
