package summarize

// builtinLocales covers the summary languages offered by the UI.
var builtinLocales = map[string]Locale{
	"en": {Name: "English", Labels: Labels{
		Title: "TITLE", Overview: "OVERVIEW", KeyPoints: "KEY POINTS",
		Takeaways: "MAIN TAKEAWAYS", Context: "CONTEXT & IMPLICATIONS",
	}},
	"de": {Name: "German", Labels: Labels{
		Title: "TITEL", Overview: "ÜBERBLICK", KeyPoints: "KERNPUNKTE",
		Takeaways: "HAUPTERKENNTNISSE", Context: "KONTEXT & AUSWIRKUNGEN",
	}},
	"es": {Name: "Spanish", Labels: Labels{
		Title: "TÍTULO", Overview: "RESUMEN GENERAL", KeyPoints: "PUNTOS CLAVE",
		Takeaways: "CONCLUSIONES PRINCIPALES", Context: "CONTEXTO E IMPLICACIONES",
	}},
	"fr": {Name: "French", Labels: Labels{
		Title: "TITRE", Overview: "APERÇU", KeyPoints: "POINTS CLÉS",
		Takeaways: "PRINCIPAUX ENSEIGNEMENTS", Context: "CONTEXTE ET IMPLICATIONS",
	}},
	"it": {Name: "Italian", Labels: Labels{
		Title: "TITOLO", Overview: "PANORAMICA", KeyPoints: "PUNTI CHIAVE",
		Takeaways: "CONCLUSIONI PRINCIPALI", Context: "CONTESTO E IMPLICAZIONI",
	}},
	"nl": {Name: "Dutch", Labels: Labels{
		Title: "TITEL", Overview: "OVERZICHT", KeyPoints: "KERNPUNTEN",
		Takeaways: "BELANGRIJKSTE INZICHTEN", Context: "CONTEXT EN GEVOLGEN",
	}},
	"pl": {Name: "Polish", Labels: Labels{
		Title: "TYTUŁ", Overview: "PRZEGLĄD", KeyPoints: "KLUCZOWE PUNKTY",
		Takeaways: "GŁÓWNE WNIOSKI", Context: "KONTEKST I IMPLIKACJE",
	}},
	"pt": {Name: "Portuguese", Labels: Labels{
		Title: "TÍTULO", Overview: "VISÃO GERAL", KeyPoints: "PONTOS-CHAVE",
		Takeaways: "PRINCIPAIS CONCLUSÕES", Context: "CONTEXTO E IMPLICAÇÕES",
	}},
	"ru": {Name: "Russian", Labels: Labels{
		Title: "ЗАГОЛОВОК", Overview: "ОБЗОР", KeyPoints: "КЛЮЧЕВЫЕ МОМЕНТЫ",
		Takeaways: "ГЛАВНЫЕ ВЫВОДЫ", Context: "КОНТЕКСТ И ПОСЛЕДСТВИЯ",
	}},
	"ja": {Name: "Japanese", Labels: Labels{
		Title: "タイトル", Overview: "概要", KeyPoints: "要点",
		Takeaways: "主な学び", Context: "背景と影響",
	}},
	"zh": {Name: "Chinese", Labels: Labels{
		Title: "标题", Overview: "概述", KeyPoints: "要点",
		Takeaways: "主要收获", Context: "背景与影响",
	}},
	"ko": {Name: "Korean", Labels: Labels{
		Title: "제목", Overview: "개요", KeyPoints: "핵심 포인트",
		Takeaways: "주요 시사점", Context: "맥락과 영향",
	}},
}
