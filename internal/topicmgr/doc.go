// Package topicmgr holds the topic primitives of the Hermes protocol: wildcard
// subscription patterns, parsed topic templates and the topic catalog.
//
// Patterns use "/" separated segments. "+" matches exactly one segment and a
// trailing "#" matches zero or more segments:
//
//	m := topicmgr.MustCompilePattern("hermes/intent/+")
//	m.Match("hermes/intent/turnOn")        // true
//	m.Match("hermes/intent/turnOn/extra")  // false
//
// Templates name their variable segments and derive both the concrete topic
// used for publishing and the wildcard used for subscribing:
//
//	t := topicmgr.MustParseTemplate("hermes/audioServer/{siteId}/playBytes/{id}")
//	t.Format(topicmgr.Params{"siteId": "kitchen", "id": "42"}) // hermes/audioServer/kitchen/playBytes/42
//	t.Wildcard(topicmgr.Params{"siteId": "kitchen"})           // hermes/audioServer/kitchen/playBytes/+
//	t.Extract("hermes/audioServer/kitchen/playBytes/42")       // {siteId: kitchen, id: 42}
//
// Catalog topics are declared once and registered with a Manager:
//
//	var TTSSay = topicmgr.Define(topicmgr.TopicConfig{
//		Name:        "hermes/tts/say",
//		Component:   "tts",
//		Description: "Request the speech synthesizer to speak a text",
//		Example:     `{"id":"...","text":"hello","siteId":"default"}`,
//	})
//
//	manager := topicmgr.NewManager()
//	manager.MustRegister(TTSSay)
package topicmgr
