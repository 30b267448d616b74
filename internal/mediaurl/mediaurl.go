// mediaurl нормализует медиа-пути CMS в абсолютные URL.
//
// Источник отдаёт image/thumbnail/audioUrl в трёх видах: относительный путь,
// корректный абсолютный URL и «битый» абсолютный URL с задвоенной схемой
// (артефакт конкатенации на стороне CMS, например "hhttps://" или
// "httpshttps://"). Resolve приводит все три формы к одному виду.
package mediaurl

import "strings"

// Resolve — чистая тотальная функция: одинаковый вход всегда даёт одинаковый
// выход, паник нет по построению.
//
// Правила:
//   - пустой path -> placeholder;
//   - абсолютный path -> чинится задвоенная схема, иначе возвращается как есть;
//   - относительный path -> join с base через один "/".
//
// Для уже корректного абсолютного URL функция идемпотентна.
func Resolve(path, base, placeholder string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return placeholder
	}

	if strings.Contains(p, "://") {
		return repairScheme(p)
	}

	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}

// repairScheme схлопывает мусор перед схемой до одного корректного префикса.
// "hhttps://x" и "httpshttps://x" становятся "https://x"; URL с другой схемой
// или уже корректный возвращаются без изменений.
func repairScheme(p string) string {
	// Сначала https: "http://" не является его подстрокой, но наоборот — да.
	if i := strings.Index(p, "https://"); i > 0 {
		return p[i:]
	}

	if strings.HasPrefix(p, "https://") {
		return p
	}

	if i := strings.Index(p, "http://"); i > 0 {
		return p[i:]
	}

	return p
}
