package domain

const (
	SettingTheme            = "theme"
	SettingReaderWidth      = "reader_width"
	SettingEnableAIBriefing = "enable_ai_briefing"
	SettingRenderMarkdown   = "render_markdown"

	DefaultTheme       = "theme_1_brutalist"
	DefaultReaderWidth = "Medium"
)
