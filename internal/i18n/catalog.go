package i18n

var catalog = map[string]map[string]string{
	LangUzbek: {
		KeyGreeting:      "Salom! Menga YouTube havolasini yuboring.",
		KeyHelp:          "YouTube video yoki pleylist havolasini yuboring, so'ng formatni tanlang.\nQidirish uchun shunchaki video nomini yozing.",
		KeyChooseFormat:  "Qaysi formatda yuklab olmoqchisiz?",
		KeyButtonVideo:   "Video",
		KeyButtonAudio:   "Audio",
		KeyInvalidLink:   "Iltimos, yaroqli YouTube havolasini yuboring.",
		KeyUnsupported:   "Bu havola qo'llab-quvvatlanmaydi. Iltimos, YouTube havolasini yuboring.",
		KeyPlaylistPick:  "Pleylistdan videoni tanlang:",
		KeyPlaylistEmpty: "Pleylistda yuklab olinadigan video topilmadi.",
		KeyPlaylistError: "Pleylistni o'qib bo'lmadi. Keyinroq urinib ko'ring.",
		KeyQueryExpired:  "So'rov eskirgan. Iltimos, qaytadan yuboring.",
		KeyDownloading:   "Yuklab olinmoqda...",
		KeyQueued:        "Navbatga qo'yildi (%d-o'rin).",
		KeyMaintenance:   "Bot hozirda texnik ishlar sababli vaqtincha to'xtatilgan. Keyinroq urinib ko'ring.",
		KeyBusy:          "Bot hozir band. Birozdan so'ng qayta urinib ko'ring.",

		KeyStatusStarting: "Yuklab olish boshlanmoqda... Iltimos, kuting.",
		KeyStatusProgress: "Yuklab olinmoqda: %d%%",
		KeyStatusSending:  "Fayl yuborilmoqda...",
		KeyDownloadLink:   "Fayl Telegram uchun juda katta (%s). Yuklab olish havolasi %s davomida amal qiladi:\n%s",

		KeyErrorTool:     "Yuklab olishda xatolik yuz berdi. `yt-dlp` xatosi.",
		KeyErrorSpawn:    "Yuklab olish dasturini ishga tushirib bo'lmadi.",
		KeyErrorTimeout:  "Yuklab olish juda uzoq davom etdi va to'xtatildi.",
		KeyErrorCanceled: "Yuklab olish bekor qilindi.",
		KeyErrorNotFound: "Yuklab olingan faylni topa olmadim.",
		KeyErrorDelivery: "Faylni yuborishda xatolik: %s",
		KeyErrorTooLarge: "Fayl Telegram orqali yuborish uchun juda katta.",
		KeyErrorGeneral:  "Umumiy xatolik: %s",
	},
	LangEnglish: {
		KeyGreeting:      "Hi! Send me a YouTube link.",
		KeyHelp:          "Send a YouTube video or playlist link, then pick a format.\nTo search, just type the video title.",
		KeyChooseFormat:  "Which format do you want?",
		KeyButtonVideo:   "Video",
		KeyButtonAudio:   "Audio",
		KeyInvalidLink:   "Please send a valid YouTube link.",
		KeyUnsupported:   "This link is not supported. Please send a YouTube link.",
		KeyPlaylistPick:  "Pick a video from the playlist:",
		KeyPlaylistEmpty: "No downloadable videos found in the playlist.",
		KeyPlaylistError: "Could not read the playlist. Try again later.",
		KeyQueryExpired:  "This request has expired. Please send it again.",
		KeyDownloading:   "Downloading...",
		KeyQueued:        "Queued (position %d).",
		KeyMaintenance:   "The bot is temporarily down for maintenance. Try again later.",
		KeyBusy:          "The bot is busy right now. Try again in a moment.",

		KeyStatusStarting: "Starting download... Please wait.",
		KeyStatusProgress: "Downloading: %d%%",
		KeyStatusSending:  "Sending file...",
		KeyDownloadLink:   "The file is too large for Telegram (%s). This download link is valid for %s:\n%s",

		KeyErrorTool:     "Download failed. `yt-dlp` error.",
		KeyErrorSpawn:    "Could not start the downloader.",
		KeyErrorTimeout:  "The download took too long and was stopped.",
		KeyErrorCanceled: "The download was cancelled.",
		KeyErrorNotFound: "Could not find the downloaded file.",
		KeyErrorDelivery: "Failed to send the file: %s",
		KeyErrorTooLarge: "The file is too large to send through Telegram.",
		KeyErrorGeneral:  "General error: %s",
	},
	LangRussian: {
		KeyGreeting:      "Привет! Отправьте мне ссылку на YouTube.",
		KeyHelp:          "Отправьте ссылку на видео или плейлист YouTube и выберите формат.\nДля поиска просто напишите название видео.",
		KeyChooseFormat:  "В каком формате скачать?",
		KeyButtonVideo:   "Видео",
		KeyButtonAudio:   "Аудио",
		KeyInvalidLink:   "Пожалуйста, отправьте корректную ссылку на YouTube.",
		KeyUnsupported:   "Эта ссылка не поддерживается. Отправьте ссылку на YouTube.",
		KeyPlaylistPick:  "Выберите видео из плейлиста:",
		KeyPlaylistEmpty: "В плейлисте нет доступных видео.",
		KeyPlaylistError: "Не удалось прочитать плейлист. Попробуйте позже.",
		KeyQueryExpired:  "Запрос устарел. Отправьте его ещё раз.",
		KeyDownloading:   "Загрузка...",
		KeyQueued:        "В очереди (позиция %d).",
		KeyMaintenance:   "Бот временно недоступен из-за технических работ. Попробуйте позже.",
		KeyBusy:          "Бот сейчас занят. Попробуйте чуть позже.",

		KeyStatusStarting: "Начинаю загрузку... Пожалуйста, подождите.",
		KeyStatusProgress: "Загрузка: %d%%",
		KeyStatusSending:  "Отправляю файл...",
		KeyDownloadLink:   "Файл слишком большой для Telegram (%s). Ссылка действительна %s:\n%s",

		KeyErrorTool:     "Ошибка загрузки. Ошибка `yt-dlp`.",
		KeyErrorSpawn:    "Не удалось запустить загрузчик.",
		KeyErrorTimeout:  "Загрузка заняла слишком много времени и была остановлена.",
		KeyErrorCanceled: "Загрузка отменена.",
		KeyErrorNotFound: "Не удалось найти загруженный файл.",
		KeyErrorDelivery: "Ошибка при отправке файла: %s",
		KeyErrorTooLarge: "Файл слишком большой для отправки через Telegram.",
		KeyErrorGeneral:  "Общая ошибка: %s",
	},
}
