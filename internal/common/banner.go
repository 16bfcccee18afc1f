package common

import (
	"fmt"

	"github.com/ternarybob/banner"
)

const bannerWidth = 60

// PrintBanner displays the application banner
func PrintBanner(version string) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetWidth(bannerWidth).
		SetBorderColor(banner.ColorCyan).
		SetTextColor(banner.ColorWhite).
		SetBold(true)

	b.PrintTopLine()
	b.PrintCenteredText("SITECHAT")
	b.PrintCenteredText("Website-grounded chat assistant")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", version, 10)
	b.PrintBottomLine()
	fmt.Println()
}
