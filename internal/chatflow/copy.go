package chatflow

// Visitor-facing copy. Placeholders are filled in by the transition code.
const (
	defaultGreeting = "Hey! 👋 Need a free estimate? I can help you get started right now."

	askNameText        = "Awesome! Let's get you that estimate. What's your name?"
	askNamePlaceholder = "Your name..."

	askPhoneFormat   = "Nice to meet you, %s! 😊 What's the best phone number to reach you?"
	phonePlaceholder = "(555) 123-4567"
	invalidPhoneText = "Hmm, that doesn't look like a valid number. Try again? Include area code if possible."

	askEmailText     = "And your email? (We'll send the estimate details there)"
	emailPlaceholder = "your@email.com"
	invalidEmailText = "That doesn't look like a valid email. Can you double-check?"

	askServiceText          = "What type of project are you looking at?"
	otherServiceText        = "No problem! Just type what you need help with."
	otherServicePlaceholder = "Describe what you need..."

	askDescriptionText     = "Tell us a bit more about the project — size, timeline, anything that helps! (Or type \"skip\" to move on)"
	descriptionPlaceholder = "Describe your project..."

	successHTMLFormat = `<div class="ace-success-msg"><span class="ace-success-icon">🎉</span><strong>You're all set, %s!</strong></div>`
	followUpFormat    = "Got it! Someone from %s will call you within 1 business day. For urgent needs, call us directly at %s."
	afterHoursSuffix  = "\n\n🌙 We're currently closed but your info is saved — you'll hear from us first thing in the morning!"
	thanksText        = "Thanks! Have a great day! 😊"

	startEstimateLabel = "✅ Yes, get me an estimate!"
	callLabelFormat    = "📞 Call %s"
	callNowLabelFormat = "📞 Call %s Now"
	otherLabel         = "✏️ Other"
	acknowledgeLabel   = "✅ Sounds good!"
)

// Button ids. Service buttons use ServiceChoiceID.
const (
	ChoiceStartEstimate = "start_estimate"
	ChoiceCall          = "call"
	ChoiceOther         = "service_other"
	ChoiceCallNow       = "call_now"
	ChoiceAcknowledge   = "acknowledge"

	serviceChoicePrefix = "service:"
)

// ServiceChoiceID is the button id offered for a configured service.
func ServiceChoiceID(service string) string {
	return serviceChoicePrefix + service
}
