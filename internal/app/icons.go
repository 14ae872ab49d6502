package app

// IconChoices is the glyph catalog offered by the icon picker.
var IconChoices = []string{
	"📄", "🗂️", "📁", "🗃️", "🗄️", "🗳️", "📝", "📑", "📋", "🔖",
	"🔍", "📥", "📤", "🧾", "📇", "📦", "✉️", "📬", "📮",
	"🏠", "🏡", "🏘️", "🔑", "🧱", "🏚️", "🏗️", "📜", "🔧", "🪛", "🛠️",
	"🚗", "🚙", "🏎️", "🛻", "🚌", "🚐", "🛵", "🏍️", "🚲", "🅿️", "🛣️",
	"⚡", "🔥", "💧", "📡", "☎️", "📞", "🌐", "💻",
	"🛡️", "🏥", "🧳", "❤️‍🩹",
	"💰", "💳", "🏦", "📈", "📉", "💵", "💶", "💷", "🧮",
	"👤", "🪪", "🛂", "🎓", "🩺", "💊", "🩹", "🐾",
	"💼", "📅", "📂", "💬", "🤝", "📊",
	"🎉", "🎫", "✈️", "🚉", "🎁", "🎀", "🛒", "🛍️",
}
