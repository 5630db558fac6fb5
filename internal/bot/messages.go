package bot

const (
	welcomeMessage = "👋 Hello! I can share a location with a radius or help you build an apartment search " +
		"for ImmobilienScout24.\n\nWhat would you like to do?"
	helpMessage = "Available commands:\n" +
		"/start - choose what to do\n" +
		"/location - share a location with a radius\n" +
		"/apartment - build an apartment search\n" +
		"/history - show your last searches\n" +
		"/cancel - start over"

	locationPromptMessage = "📍 Tap the button below to open the map, pick a point and a radius."
	viertelPromptMessage  = "🏘️ Which neighborhood (Viertel) do you want to live in? Type a name or pick one below."
	viertelNotFound       = "🤷 I couldn't find that neighborhood. Try one of these:"
	viertelMapMessage     = "🗺️ Now open the map to refine the centre and radius of your search."
	budgetPromptMessage   = "💶 What is your monthly budget in EUR? Format: <code>800-1500</code>"
	spaceRoomsPrompt      = "🏠 How much space and how many rooms? Format: <code>42-68 m² | 2-4 rooms</code>"
	spaceRoomsFormatError = "❌ I couldn't read that. Please use the format <code>42-68 m² | 2-4 rooms</code>"
	floorsPromptMessage   = "🏢 Which floors? Format: <code>1-4</code>, or type <code>any</code>."
	floorsFormatError     = "❌ I couldn't read that. Please send a floor range like <code>0-3</code> or <code>any</code>."
	extrasPromptMessage   = "⚙️ Toggle the extras you care about, then tap <b>Generate search</b>."
	invalidPayloadMessage = "❌ I couldn't read the location from the map. Please try again."
	notSureMessage        = "🤔 I'm not sure what to do with this input at this step. Use /start to begin again."
	historyDisabled       = "Search history is not enabled."
	historyEmpty          = "You have not generated any searches yet."
	apologyMessage        = "😔 Sorry, something went wrong. Please try again or restart with /start."
)
