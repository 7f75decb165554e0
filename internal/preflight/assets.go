package preflight

import (
	"github.com/Aman-CERP/shipcheck/internal/assets"
	"github.com/Aman-CERP/shipcheck/internal/finding"
)

const (
	subjectIcon           = "icon"
	subjectSplash         = "splash.image"
	subjectAdaptiveFG     = "android.adaptiveIcon.foregroundImage"
	subjectAdaptiveBG     = "android.adaptiveIcon.background"
	subjectAdaptiveBGFile = "android.adaptiveIcon.backgroundImage"
	subjectIOSIcon        = "ios.icon"
)

// checkDimensionProbe discloses, once per run, that no asset dimensions
// will be verified.
func checkDimensionProbe(ev *evaluation) []finding.Finding {
	if ev.inspector.ProbeAvailable() {
		return nil
	}
	return []finding.Finding{finding.Warnf("assets", "no dimension probe available; image dimension checks skipped")}
}

const wantPath = "an asset path"

func checkIcon(ev *evaluation) []finding.Finding {
	if out, ok := ev.wrongType(finding.Fail, subjectIcon, wantPath, "icon"); ok {
		return out
	}
	if ev.cfg.Icon == "" {
		return []finding.Finding{finding.Failf(subjectIcon, "not declared")}
	}
	return ev.inspector.CheckAsset(subjectIcon, ev.cfg.Icon, assets.IconSize, assets.IconSize)
}

func checkSplash(ev *evaluation) []finding.Finding {
	if out, ok := ev.wrongType(finding.Fail, subjectSplash, wantPath, "splash.image", "splash"); ok {
		return out
	}
	if ev.cfg.SplashImage == "" {
		return nil
	}
	return ev.inspector.CheckAsset(subjectSplash, ev.cfg.SplashImage, 0, 0)
}

func checkAdaptiveIconForeground(ev *evaluation) []finding.Finding {
	if out, ok := ev.wrongType(finding.Fail, subjectAdaptiveFG, wantPath, "android.adaptiveIcon.foregroundImage", "android.adaptiveIcon"); ok {
		return out
	}
	ai := ev.cfg.AdaptiveIcon
	if ai == nil || ai.ForegroundImage == "" {
		return nil
	}
	return ev.inspector.CheckAsset(subjectAdaptiveFG, ai.ForegroundImage, assets.IconSize, assets.IconSize)
}

// checkAdaptiveIconBackground requires exactly one of a background color
// or image. Without either the launcher renders the icon on black.
func checkAdaptiveIconBackground(ev *evaluation) []finding.Finding {
	ai := ev.cfg.AdaptiveIcon
	if ai == nil {
		return nil
	}
	if out, ok := ev.wrongType(finding.Fail, subjectAdaptiveBG, "a string",
		"android.adaptiveIcon.backgroundColor", "android.adaptiveIcon.backgroundImage"); ok {
		return out
	}
	switch {
	case ai.BackgroundColor == "" && ai.BackgroundImage == "":
		return []finding.Finding{finding.Failf(subjectAdaptiveBG, "adaptive icon requires backgroundColor or backgroundImage; neither is set")}
	case ai.BackgroundColor != "" && ai.BackgroundImage != "":
		return []finding.Finding{finding.Warnf(subjectAdaptiveBG, "both backgroundColor %s and backgroundImage %s are set; set exactly one", ai.BackgroundColor, ai.BackgroundImage)}
	case ai.BackgroundColor != "":
		return []finding.Finding{finding.Passf(subjectAdaptiveBG, "backgroundColor %s", ai.BackgroundColor)}
	default:
		out := []finding.Finding{finding.Passf(subjectAdaptiveBG, "backgroundImage %s", ai.BackgroundImage)}
		return append(out, ev.inspector.CheckAsset(subjectAdaptiveBGFile, ai.BackgroundImage, assets.IconSize, assets.IconSize)...)
	}
}

func checkIOSIcon(ev *evaluation) []finding.Finding {
	if out, ok := ev.wrongType(finding.Fail, subjectIOSIcon, "an asset path or appearance map", "ios.icon"); ok {
		return out
	}
	if ev.cfg.IOSIcon == "" {
		return nil
	}
	return ev.inspector.CheckAsset(subjectIOSIcon, ev.cfg.IOSIcon, assets.IconSize, assets.IconSize)
}
