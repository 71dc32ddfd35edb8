package webchat

import _ "embed"

// WidgetJS is the browser client served at /chat/widget.js.
//
//go:embed assets/widget.js
var WidgetJS []byte
