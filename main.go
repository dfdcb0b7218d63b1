package main

import (
	"context"
	"embed"
	"runtime"

	"wavemark/app"
	"wavemark/app/settings"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	settingsService := settings.NewSettingsService()
	appInstance := app.NewApp(settingsService)
	// Inject cache manager (app) so settings service can resize the asset cache
	settingsService.SetCacheManager(appInstance)

	AppMenu := menu.NewMenu()
	if runtime.GOOS == "darwin" {
		AppMenu.Append(menu.AppMenu())
	}

	FileMenu := AppMenu.AddSubmenu("File")
	FileMenu.AddText("Open Recording", keys.CmdOrCtrl("o"), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:openRecording")
		}
	})
	FileMenu.AddText("Close Recording", keys.CmdOrCtrl("w"), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:closeRecording")
		}
	})
	FileMenu.AddSeparator()
	FileMenu.AddText("Save Annotations", keys.CmdOrCtrl("s"), func(_ *menu.CallbackData) {
		appInstance.SaveAnnotations()
	})
	FileMenu.AddText("Export Annotations", keys.Combo("e", keys.CmdOrCtrlKey, keys.ShiftKey), func(_ *menu.CallbackData) {
		if _, err := appInstance.ExportAnnotations(); err != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:exportFailed", err.Error())
		}
	})
	FileMenu.AddSeparator()
	FileMenu.AddText("Settings", keys.CmdOrCtrl(","), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:settings")
		}
	})

	EditMenu := AppMenu.AddSubmenu("Edit")
	EditMenu.AddText("Undo", keys.CmdOrCtrl("z"), func(_ *menu.CallbackData) {
		appInstance.HandleKey(app.KeyEvent{Key: "z", Ctrl: true})
	})
	EditMenu.AddText("Redo", keys.Combo("z", keys.CmdOrCtrlKey, keys.ShiftKey), func(_ *menu.CallbackData) {
		appInstance.HandleKey(app.KeyEvent{Key: "z", Ctrl: true, Shift: true})
	})
	EditMenu.AddSeparator()
	EditMenu.AddText("Cut", keys.CmdOrCtrl("x"), func(_ *menu.CallbackData) {
		appInstance.CutSelection()
	})
	EditMenu.AddText("Copy", keys.CmdOrCtrl("c"), func(_ *menu.CallbackData) {
		appInstance.CopySelection()
	})
	EditMenu.AddText("Paste", keys.CmdOrCtrl("v"), func(_ *menu.CallbackData) {
		appInstance.PasteClipboard()
	})
	EditMenu.AddSeparator()
	EditMenu.AddText("Select All", keys.CmdOrCtrl("a"), func(_ *menu.CallbackData) {
		appInstance.HandleKey(app.KeyEvent{Key: "a", Ctrl: true})
	})

	ViewMenu := AppMenu.AddSubmenu("View")
	ViewMenu.AddText("Zoom In", keys.CmdOrCtrl("="), func(_ *menu.CallbackData) {
		appInstance.ZoomIn()
	})
	ViewMenu.AddText("Zoom Out", keys.CmdOrCtrl("-"), func(_ *menu.CallbackData) {
		appInstance.ZoomOut()
	})
	ViewMenu.AddText("Reset Zoom", keys.CmdOrCtrl("0"), func(_ *menu.CallbackData) {
		appInstance.ZoomReset()
	})
	ViewMenu.AddSeparator()
	ViewMenu.AddText("Toggle Annotation Mode", nil, func(_ *menu.CallbackData) {
		appInstance.ToggleAnnotationMode()
	})

	HelpMenu := AppMenu.AddSubmenu("Help")
	HelpMenu.AddText("Shortcuts", nil, func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:shortcuts")
		}
	})
	HelpMenu.AddText("About", nil, func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:about")
		}
	})

	// Get saved window size or use defaults
	width, height, err := appInstance.GetSavedWindowSize()
	if err != nil {
		println("Warning: Failed to get saved window size, using defaults:", err.Error())
		width, height = 1280, 800
	}

	err = wails.Run(&options.App{
		Title:     "Wavemark",
		Width:     width,
		Height:    height,
		Menu:      AppMenu,
		MinWidth:  800,
		MinHeight: 500,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 18, G: 22, B: 30, A: 1},
		OnStartup: func(ctx context.Context) {
			appInstance.Startup(ctx)
			settingsService.Startup(ctx)
			// Ensure instance ID is generated on first startup
			if err := settingsService.EnsureInstanceID(); err != nil {
				println("Warning: Failed to generate instance ID:", err.Error())
			}
		},
		OnShutdown: func(ctx context.Context) {
			appInstance.Shutdown(ctx)
		},
		Bind: []interface{}{
			appInstance,
			settingsService,
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}
