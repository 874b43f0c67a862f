package ingest

// DefaultPrompt asks for the JSON contract the strict strategy reads and
// keeps the table instructions, so a model that ignores the JSON request
// still answers in a shape the table strategy can read.
const DefaultPrompt = `Analyse ces images de flyer/document publicitaire et extrais les prestations de beauté qu'elles présentent.

Réponds UNIQUEMENT avec un objet JSON de la forme :
{"prestations": [{"category": "femmes|hommes|enfants", "kind": "prestation|forfait", "name": "...", "price": "30", "startingPrice": false, "duration": {"hours": 0, "minutes": 30}, "description": "..."}]}

Si tu ne peux pas produire de JSON, crée à la place un tableau avec les colonnes suivantes : "Nom de la prestation", "À partir de (0 ou 1)", "Prix (€)", "Durée (en minutes)", "Description", précédé du nom de chaque catégorie (Femmes, Hommes, Enfants).

Instructions précises :
1. Extraction fidèle : Extrais UNIQUEMENT les prestations visibles sur les images, sans ajout ni omission.
2. Format des données :
   - Nom : Copie exacte du nom sur le flyer, sans reformulation
   - À partir de : true (ou 1) si prix minimum/fourchette, false (ou 0) si prix fixe
   - Prix : Uniquement le prix de départ en euros (le plus bas si fourchette)
   - Durée : heures et minutes (ex: 1h30 → {"hours": 1, "minutes": 30}), omise si non mentionnée
   - Description : Détails complémentaires (options, conditions, spécifications)
   - Catégorie : femmes, hommes ou enfants, d'après la rubrique du flyer
   - Type : "forfait" pour une formule regroupant plusieurs prestations, sinon "prestation"
3. Cas spéciaux :
   - Prix fourchette (ex: "30€-50€") : startingPrice à true, 30 dans "price", et "Prix variable jusqu'à 50€" dans "description"
   - Informations illisibles : Indiquer "Non spécifié" ou "Illisible"
   - Déclinaisons : Créer une ligne distincte pour chaque variante (ex: cheveux courts/longs)
4. Présentation :
   - Respecter l'ordre d'apparition des prestations sur le flyer
   - Ne pas deviner d'informations manquantes

Vérifie soigneusement que toutes les prestations sont correctement extraites avec leurs prix exacts avant de répondre.`
